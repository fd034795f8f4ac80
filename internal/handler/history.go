package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	historyLimit = 50
	exportLimit  = 1000
	exportSheet  = "Alerts"
)

type alertDetail struct {
	*models.AlertRecord
	Acknowledgements []models.AlertAcknowledgement `json:"acknowledgements"`
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	records, err := models.ListAlertRecords(h.DB, models.CurrentUserID(c), historyLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	rec, err := models.GetAlertRecord(h.DB, models.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	acks, err := models.ListAcknowledgements(h.DB, rec.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, alertDetail{AlertRecord: rec, Acknowledgements: acks})
}

// handleExportAlerts 导出告警历史为 xlsx
func (h *Handlers) handleExportAlerts(c *gin.Context) {
	records, err := models.ListAlertRecords(h.DB, models.CurrentUserID(c), exportLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := alertWorkbook(records)
	if err != nil {
		response.Error(c, err)
		return
	}
	name := fmt.Sprintf("emergency-history-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

var alertColumns = []struct {
	title string
	width float64
}{
	{"Reference", 12},
	{"Created At", 20},
	{"Status", 10},
	{"Message", 40},
	{"Transcript (English)", 40},
	{"Language", 10},
	{"Location", 22},
	{"Contacts", 10},
	{"Sent", 8},
	{"Failed", 8},
	{"Providers", 20},
	{"Nearby Hospitals", 16},
}

func alertRow(r models.AlertRecord) []any {
	return []any{
		r.Reference,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.Status,
		r.MessageText,
		r.TranslatedTranscript,
		r.DetectedLanguage,
		r.RawLocation,
		r.ContactsNotified,
		r.SentCount,
		r.FailedCount,
		strings.Join(r.Providers, ","),
		len(r.NearbyHospitalIDs),
	}
}

// alertWorkbook renders one row per alert under a frozen header.
func alertWorkbook(records []models.AlertRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE2E2"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(alertColumns))
	for i, col := range alertColumns {
		header[i] = col.title
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(alertColumns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := alertRow(r)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
