package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

const (
	summarySheet = "Summary"
	itemsSheet   = "Items"
	dateLayout   = "2006-01-02"
)

var itemHeader = []any{
	"ID", "Kind", "Expression", "Reading", "Meaning", "Tags",
	"Mastery", "Interval (days)", "Easiness", "Correct", "Incorrect", "Next review", "Last reviewed",
}

// Export writes the user's progress as an xlsx workbook to w.
func (s *ProgressService) Export(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return err
	}

	items, err := s.analytics.ItemProgress(ctx, userID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, sum); err != nil {
		return err
	}
	if err := writeItemsSheet(f, items); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sum *entities.ProgressSummary) error {
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	last := ""
	if sum.LastActivityAt != nil {
		last = sum.LastActivityAt.UTC().Format("2006-01-02 15:04")
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total items", sum.TotalItems},
		{"New", sum.Levels.New},
		{"Learning", sum.Levels.Learning},
		{"Review", sum.Levels.Review},
		{"Mastered", sum.Levels.Mastered},
		{"Due today", sum.DueToday},
		{"Total reviews", sum.TotalReviews},
		{"Accuracy", sum.Accuracy},
		{"Average easiness", sum.AverageEasiness},
		{"Streak (days)", sum.StreakDays},
		{"Last activity", last},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	return f.SetColWidth(summarySheet, "A", "A", 20)
}

func writeItemsSheet(f *excelize.File, items []*entities.ItemProgress) error {
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return fmt.Errorf("create items sheet: %w", err)
	}

	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range items {
		row := []any{
			p.Item.ID,
			string(p.Item.Kind),
			p.Item.Expression,
			p.Item.Reading,
			p.Item.Meaning,
			strings.Join(p.Item.Tags, ", "),
		}
		if st := p.State; st != nil {
			last := ""
			if st.LastReviewedAt != nil {
				last = st.LastReviewedAt.UTC().Format(dateLayout)
			}
			row = append(row,
				string(st.MasteryLevel),
				st.IntervalDays,
				st.EasinessFactor,
				st.CorrectCount,
				st.IncorrectCount,
				st.NextReviewAt.Format(dateLayout),
				last,
			)
		} else {
			row = append(row, "new")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(itemsSheet, cell, &row); err != nil {
			return fmt.Errorf("write item row: %w", err)
		}
	}

	return f.SetColWidth(itemsSheet, "C", "E", 24)
}
