package services

import (
	"context"
	"fmt"
	"strings"

	"taskmanager/models"
	"taskmanager/store"

	"github.com/xuri/excelize/v2"
)

const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report is a rendered workbook ready to be served as an attachment.
type Report struct {
	Filename string
	Content  []byte
}

type column struct {
	header string
	width  float64
}

type ReportService struct {
	tasks store.TaskStore
	users store.UserStore
}

func NewReportService(tasks store.TaskStore, users store.UserStore) *ReportService {
	return &ReportService{tasks: tasks, users: users}
}

func (s *ReportService) ExportTasks(ctx context.Context, r Requester) (*Report, error) {
	if !r.IsAdmin() {
		return nil, Forbidden("Not authorized as an admin")
	}

	tasks, err := s.tasks.FindTasks(ctx, store.TaskFilter{}, store.FindOptions{})
	if err != nil {
		return nil, Internal("Failed to load tasks", err)
	}
	details, err := populate(ctx, s.users, tasks)
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(details))
	for _, t := range details {
		assignees := make([]string, 0, len(t.AssignedTo))
		for _, u := range t.AssignedTo {
			assignees = append(assignees, fmt.Sprintf("%s (%s)", u.Name, u.Email))
		}
		assignedTo := strings.Join(assignees, ", ")
		if assignedTo == "" {
			assignedTo = "Unassigned"
		}

		dueDate := ""
		if !t.DueDate.IsZero() {
			dueDate = t.DueDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, []interface{}{
			t.ID, t.Title, t.Description, string(t.Priority), string(t.Status), dueDate, assignedTo,
		})
	}

	content, err := buildWorkbook("Tasks Report", []column{
		{"Task ID", 25},
		{"Title", 30},
		{"Description", 50},
		{"Priority", 15},
		{"Status", 20},
		{"Due Date", 20},
		{"Assigned To", 30},
	}, rows)
	if err != nil {
		return nil, Internal("Failed to build tasks report", err)
	}
	return &Report{Filename: "tasks_report.xlsx", Content: content}, nil
}

func (s *ReportService) ExportUsers(ctx context.Context, r Requester) (*Report, error) {
	if !r.IsAdmin() {
		return nil, Forbidden("Not authorized as an admin")
	}

	users, err := s.users.ListUsers(ctx, "")
	if err != nil {
		return nil, Internal("Failed to load users", err)
	}
	tasks, err := s.tasks.FindTasks(ctx, store.TaskFilter{}, store.FindOptions{})
	if err != nil {
		return nil, Internal("Failed to load tasks", err)
	}

	type tally struct {
		total, pending, inProgress, completed int
	}
	counts := make(map[string]*tally, len(users))
	for _, u := range users {
		counts[u.ID] = &tally{}
	}
	for _, t := range tasks {
		for _, id := range t.AssignedTo {
			c, ok := counts[id]
			if !ok {
				continue
			}
			c.total++
			switch t.Status {
			case models.StatusPending:
				c.pending++
			case models.StatusInProgress:
				c.inProgress++
			case models.StatusCompleted:
				c.completed++
			}
		}
	}

	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		c := counts[u.ID]
		rows = append(rows, []interface{}{u.Name, u.Email, c.total, c.pending, c.inProgress, c.completed})
	}

	content, err := buildWorkbook("User Task Report", []column{
		{"Name", 40},
		{"Email", 30},
		{"Total Assigned Tasks", 20},
		{"Pending Tasks", 20},
		{"In Progress Tasks", 20},
		{"Completed Tasks", 20},
	}, rows)
	if err != nil {
		return nil, Internal("Failed to build users report", err)
	}
	return &Report{Filename: "users_report.xlsx", Content: content}, nil
}

// buildWorkbook renders a single-sheet workbook with a bold header row.
func buildWorkbook(sheet string, columns []column, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
