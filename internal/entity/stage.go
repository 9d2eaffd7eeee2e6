package entity

// Stage is one step of the fixed manufacturing pipeline.
type Stage string

const (
	StageCutting     Stage = "cutting"
	StageEdgeBanding Stage = "edge_banding"
	StageDrilling    Stage = "drilling"
	StageKitAssembly Stage = "kit_assembly"
	StagePackaging   Stage = "packaging"
	StageShipment    Stage = "shipment"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageCutting,
	StageEdgeBanding,
	StageDrilling,
	StageKitAssembly,
	StagePackaging,
	StageShipment,
}

// Index returns the pipeline position of s, or -1 if s is not a stage.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskPaused     TaskStatus = "PAUSED"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// DetailStatus is the scan state of a Detail.
type DetailStatus string

const (
	DetailPending  DetailStatus = "PENDING"
	DetailScanned  DetailStatus = "SCANNED"
	DetailVerified DetailStatus = "VERIFIED"
	DetailMissing  DetailStatus = "MISSING"
)

// PackageType classifies package contents.
type PackageType string

const (
	PackageFurniture PackageType = "FURNITURE"
	PackageFittings  PackageType = "FITTINGS"
	PackageOther     PackageType = "OTHER"
)

// Valid reports whether t names a known package type.
func (t PackageType) Valid() bool {
	switch t {
	case PackageFurniture, PackageFittings, PackageOther:
		return true
	}
	return false
}
