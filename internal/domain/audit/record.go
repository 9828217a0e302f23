// Package audit records who did what to which screen, and with what outcome.
package audit

import (
	"context"
	"time"

	"easyadmin/internal/core/id"
)

// Action is the kind of operation an audit record describes.
type Action string

const (
	Query  Action = "query"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Import Action = "import"
	Export Action = "export"
)

var actionLabels = map[Action]string{
	Query:  "Query",
	Create: "Create",
	Update: "Update",
	Delete: "Delete",
	Import: "Import",
	Export: "Export",
}

// Label is the human readable action name used in descriptions.
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// Outcome is the result of the audited call.
type Outcome string

const (
	Success Outcome = "success"
	Failure Outcome = "failure"
)

// ChangeKind tells a save operation whether it adds or updates an item.
// A save call passes it as the second of exactly two arguments.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota + 1
	ChangeUpdate
)

// Record is one row of sys_operation_log. It is never modified after it is built.
type Record struct {
	ID          id.ID     `db:"id" json:"id"`
	CreatedTime time.Time `db:"created_time" json:"createdTime"`
	UserID      int64     `db:"user_id" json:"userId"`
	UserName    string    `db:"user_name" json:"userName"`
	Path        string    `db:"path" json:"path"`
	Action      Action    `db:"action" json:"action"`
	Description string    `db:"description" json:"description"`

	// Params is the serialized argument payload. Large payloads are stored
	// compressed in ParamsZstd and Params is empty until expanded.
	Params     string `db:"operation_params" json:"params,omitempty"`
	ParamsZstd []byte `db:"operation_params_zstd" json:"-"`

	ClientIP      string  `db:"client_ip" json:"clientIp"`
	ClientDevice  string  `db:"client_device" json:"clientDevice"`
	Outcome       Outcome `db:"outcome" json:"outcome"`
	FailureReason string  `db:"failure_reason" json:"failureReason,omitempty"`
	DurationMs    int64   `db:"duration_ms" json:"durationMs"`
}

// Recorder persists audit records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// MenuResolver maps a screen path to its menu label. It returns "" with no
// error when the path is not a menu entry.
type MenuResolver interface {
	MenuLabel(ctx context.Context, path string) (string, error)
}
