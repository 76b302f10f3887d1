package operations

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/repokit/repokit/pkg/badgerfx"
)

const (
	prefix = "operation:"

	prefixByID   = prefix + "id:"
	prefixByPath = prefix + "path:"

	// pathTerminator keeps "/a/b" from prefix-matching "/a/bc".
	pathTerminator = "\x00"
)

// Record is the persisted history entry of an operation.
type Record struct {
	ID        uuid.UUID
	Path      string
	Kind      Kind
	State     State
	Error     string    // Error message if failed
	Directive Directive // Side effect requested on success
	Progress  []string  // Last transport progress lines

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// recordModel is the storage form of a Record.
type recordModel struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	Kind      Kind      `json:"kind"`
	State     State     `json:"state"`
	Error     string    `json:"error"`
	Directive Directive `json:"directive"`
	Progress  []string  `json:"progress"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newRecordModel(record *Record) *recordModel {
	if record == nil {
		return nil
	}

	return &recordModel{
		ID:          record.ID,
		Path:        record.Path,
		Kind:        record.Kind,
		State:       record.State,
		Error:       record.Error,
		Directive:   record.Directive,
		Progress:    record.Progress,
		CreatedAt:   record.CreatedAt,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
		UpdatedAt:   time.Now(),
	}
}

func newRecord(model *recordModel) *Record {
	if model == nil {
		return nil
	}

	return &Record{
		ID:          model.ID,
		Path:        model.Path,
		Kind:        model.Kind,
		State:       model.State,
		Error:       model.Error,
		Directive:   model.Directive,
		Progress:    model.Progress,
		CreatedAt:   model.CreatedAt,
		StartedAt:   model.StartedAt,
		CompletedAt: model.CompletedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func recordKey(id string) string {
	return prefixByID + id
}

func pathPrefix(path string) string {
	return prefixByPath + path + pathTerminator
}

func (m *recordModel) StorageKey() string {
	return recordKey(m.ID.String())
}

// StorageIndexes returns `operation:path:<path>\x00<unix_nano>`, zero padded so
// keys sort by creation time.
func (m *recordModel) StorageIndexes() []string {
	return []string{
		fmt.Sprintf("%s%020d", pathPrefix(m.Path), m.CreatedAt.UnixNano()),
	}
}

func (m *recordModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

func (m *recordModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}

var _ badgerfx.Entity = (*recordModel)(nil)
