// Package dashboard derives the household dashboard view-models from loaded
// tasks and members. Every function is pure and accepts empty input.
package dashboard

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/dukerupert/familydo/internal/model"
)

const unknownName = "Unknown"

type StatusCount struct {
	Status model.Status `json:"status"`
	Label  string       `json:"label"`
	Count  int          `json:"count"`
	Color  string       `json:"color"`
	Icon   string       `json:"icon"`
}

type MemberCount struct {
	MemberID int64  `json:"memberId"`
	Name     string `json:"name"`
	Tasks    int    `json:"tasks"`
}

// Summary is everything the dashboard screen renders.
type Summary struct {
	TotalTasks        int           `json:"totalTasks"`
	ActiveTasks       int           `json:"activeTasks"`
	UrgentTasks       int           `json:"urgentTasks"`
	DoneTasks         int           `json:"doneTasks"`
	CompletionRatio   float64       `json:"completionRatio"`
	CompletionPercent int           `json:"completionPercent"`
	ProgressColor     string        `json:"progressColor"`
	ActiveMembers     int           `json:"activeMembers"`
	ByStatus          []StatusCount `json:"byStatus"`
	ByMember          []MemberCount `json:"byMember"`
}

// StatusBreakdown counts tasks per status in first-seen order.
func StatusBreakdown(tasks []model.Task) []StatusCount {
	out := []StatusCount{}
	index := make(map[model.Status]int)

	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			out[i].Count++
			continue
		}
		color, icon := ChartStyle(t.Status)
		index[t.Status] = len(out)
		out = append(out, StatusCount{
			Status: t.Status,
			Label:  capitalize(string(t.Status)),
			Count:  1,
			Color:  color,
			Icon:   icon,
		})
	}
	return out
}

// TasksPerMember counts the tasks assigned to each member, zero included,
// busiest first. Ties keep the order of members.
func TasksPerMember(tasks []model.Task, members []model.Member) []MemberCount {
	counts := make(map[int64]int, len(members))
	for _, t := range tasks {
		counts[t.MemberID]++
	}

	out := make([]MemberCount, 0, len(members))
	for _, m := range members {
		out = append(out, MemberCount{
			MemberID: m.ID,
			Name:     m.FullName(),
			Tasks:    counts[m.ID],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tasks > out[j].Tasks
	})
	return out
}

// ActiveTaskCount counts tasks that are neither done nor cancelled.
func ActiveTaskCount(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status != model.StatusDone && t.Status != model.StatusCancelled {
			n++
		}
	}
	return n
}

func DoneCount(tasks []model.Task) int {
	return countStatus(tasks, model.StatusDone)
}

// CompletionRatio is done/total, or 0 for no tasks.
func CompletionRatio(tasks []model.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	return float64(DoneCount(tasks)) / float64(len(tasks))
}

// UrgentTaskCount counts tasks nobody has looked at yet.
func UrgentTaskCount(tasks []model.Task) int {
	return countStatus(tasks, model.StatusNew)
}

// ActiveMemberCount counts members with at least one task.
func ActiveMemberCount(perMember []MemberCount) int {
	n := 0
	for _, m := range perMember {
		if m.Tasks > 0 {
			n++
		}
	}
	return n
}

// CompletionPercent rounds a ratio to a whole percentage.
func CompletionPercent(ratio float64) int {
	return int(math.Round(ratio * 100))
}

// Summarize builds the full dashboard view-model.
func Summarize(tasks []model.Task, members []model.Member) Summary {
	ratio := CompletionRatio(tasks)
	perMember := TasksPerMember(tasks, members)

	return Summary{
		TotalTasks:        len(tasks),
		ActiveTasks:       ActiveTaskCount(tasks),
		UrgentTasks:       UrgentTaskCount(tasks),
		DoneTasks:         DoneCount(tasks),
		CompletionRatio:   ratio,
		CompletionPercent: CompletionPercent(ratio),
		ProgressColor:     ProgressColor(ratio),
		ActiveMembers:     ActiveMemberCount(perMember),
		ByStatus:          StatusBreakdown(tasks),
		ByMember:          perMember,
	}
}

// LookupMemberName resolves a task's assignee, or "Unknown" when the member
// no longer exists.
func LookupMemberName(members []model.Member, id int64) string {
	for _, m := range members {
		if m.ID == id {
			return m.FullName()
		}
	}
	return unknownName
}

// LookupTypeTitle resolves a task's type, or "Unknown".
func LookupTypeTitle(types []model.TaskType, id int64) string {
	for _, tt := range types {
		if tt.ID == id {
			return tt.Title
		}
	}
	return unknownName
}

func countStatus(tasks []model.Task, s model.Status) int {
	n := 0
	for _, t := range tasks {
		if t.Status == s {
			n++
		}
	}
	return n
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
