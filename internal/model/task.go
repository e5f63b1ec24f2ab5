package model

type Status string

const (
	StatusNew        Status = "new"
	StatusSeen       Status = "seen"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{
	StatusNew,
	StatusSeen,
	StatusScheduled,
	StatusInProgress,
	StatusDone,
	StatusCancelled,
}

// Statuses returns the known task statuses in display order. Any status may
// move to any other; there is no transition graph.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// Known reports whether s is one of the six task statuses.
func (s Status) Known() bool {
	for _, k := range statuses {
		if s == k {
			return true
		}
	}
	return false
}

type TaskType struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
}

type TaskTypePatch struct {
	Title *string `json:"title,omitempty"`
}

// Task references its TaskType and Member by id only; deleting either does
// not cascade.
type Task struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	TypeID      int64  `json:"typeId"`
	MemberID    int64  `json:"memberId"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	TypeID      *int64  `json:"typeId,omitempty"`
	MemberID    *int64  `json:"memberId,omitempty"`
}
