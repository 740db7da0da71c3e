package models

// HiveHealth classifies the overall condition observed during an inspection.
type HiveHealth string

const (
	HealthHealthy  HiveHealth = "healthy"
	HealthWeak     HiveHealth = "weak"
	HealthCritical HiveHealth = "critical"
)

// BroodPattern describes the laying pattern seen on inspected frames.
type BroodPattern string

const (
	BroodSolid  BroodPattern = "solid"
	BroodSpotty BroodPattern = "spotty"
	BroodNone   BroodPattern = "none"
)

// Inspection is a single hive inspection record. Its parent collection is
// the hive it belongs to. Dates are wire-format strings (YYYY-MM-DD).
type Inspection struct {
	ID           string       `json:"_id,omitempty"`
	Date         string       `json:"date,omitempty"`
	Health       HiveHealth   `json:"health,omitempty"`
	BroodPattern BroodPattern `json:"broodPattern,omitempty"`
	QueenSeen    bool         `json:"queenSeen,omitempty"`
	VarroaCount  int          `json:"varroaCount,omitempty"`
	Notes        string       `json:"notes,omitempty"`

	SyncMeta
}

func (i Inspection) RecordID() string { return i.ID }

func (i Inspection) WithID(id string) Inspection {
	i.ID = id
	return i
}

func (i Inspection) Meta() SyncMeta { return i.SyncMeta }

func (i Inspection) WithMeta(m SyncMeta) Inspection {
	i.SyncMeta = m
	return i
}

// Treatment records a varroa or disease treatment applied to a hive.
type Treatment struct {
	ID         string `json:"_id,omitempty"`
	Date       string `json:"date,omitempty"`
	Product    string `json:"product,omitempty"`
	Dose       string `json:"dose,omitempty"`
	TargetPest string `json:"targetPest,omitempty"`
	Notes      string `json:"notes,omitempty"`

	SyncMeta
}

func (t Treatment) RecordID() string { return t.ID }

func (t Treatment) WithID(id string) Treatment {
	t.ID = id
	return t
}

func (t Treatment) Meta() SyncMeta { return t.SyncMeta }

func (t Treatment) WithMeta(m SyncMeta) Treatment {
	t.SyncMeta = m
	return t
}

// FeedType enumerates what was fed to a colony.
type FeedType string

const (
	FeedSyrup   FeedType = "syrup"
	FeedFondant FeedType = "fondant"
	FeedPollen  FeedType = "pollen"
)

// Feeding records a feeding given to a hive.
type Feeding struct {
	ID       string   `json:"_id,omitempty"`
	Date     string   `json:"date,omitempty"`
	FeedType FeedType `json:"feedType,omitempty"`
	Quantity float64  `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Notes    string   `json:"notes,omitempty"`

	SyncMeta
}

func (f Feeding) RecordID() string { return f.ID }

func (f Feeding) WithID(id string) Feeding {
	f.ID = id
	return f
}

func (f Feeding) Meta() SyncMeta { return f.SyncMeta }

func (f Feeding) WithMeta(m SyncMeta) Feeding {
	f.SyncMeta = m
	return f
}

// Hive is a hive record; its parent collection is the apiary it stands in.
type Hive struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name,omitempty"`
	QueenYear int    `json:"queenYear,omitempty"`
	Frames    int    `json:"frames,omitempty"`
	Notes     string `json:"notes,omitempty"`

	SyncMeta
}

func (h Hive) RecordID() string { return h.ID }

func (h Hive) WithID(id string) Hive {
	h.ID = id
	return h
}

func (h Hive) Meta() SyncMeta { return h.SyncMeta }

func (h Hive) WithMeta(m SyncMeta) Hive {
	h.SyncMeta = m
	return h
}
