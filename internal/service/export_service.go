package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("暂无可导出的数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	exportMaxRows  = 5000
	calendarProdID = "-//lingua-market//translator calendar//EN"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRequests 客户的需求历史 (.xlsx)
	ExportRequests(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	// ExportCalendar 译员已接受/进行中/已完成的现场口译 (.ics)
	ExportCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	location *time.Location
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例；timezone 已由配置校验
func NewExportService(repo *repository.Repository, timezone string, timeout time.Duration, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, location: loc, timeout: timeout, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRequests 需求历史导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头：标题 | 类型 | 语言对 | 状态 | 预约时间 | 时长 | 地点 | 预算 | 申请数 | 创建时间

func (s *exportService) ExportRequests(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.IsClient() {
		return nil, "", pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	// 1. 查询需求
	list, _, err := s.repo.Request.ListByClient(ctx, actor.ProfileID, "", 0, exportMaxRows)
	if err != nil {
		return nil, "", storageError(s.logger, "查询需求失败", err)
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoData
	}

	// 2. 申请数
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.RequestID)
	}
	counts, err := s.repo.Assignment.CountByRequests(ctx, ids)
	if err != nil {
		return nil, "", storageError(s.logger, "统计申请数失败", err)
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "翻译需求"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"标题", "类型", "语言对", "状态", "预约时间", "时长(小时)", "地点", "预算", "申请数", "创建时间"}
	widths := []float64{32, 10, 16, 12, 20, 10, 24, 12, 8, 20}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	for i := range list {
		r := &list[i]
		row := i + 2
		values := []interface{}{
			r.Title,
			string(r.RequestType),
			languagePair(r),
			string(r.Status),
			s.formatLocal(r.ScheduledDate),
			floatOrDash(r.DurationHours),
			locationText(r),
			floatOrDash(r.Budget),
			counts[r.RequestID],
			r.CreatedAt.In(s.location).Format("2006-01-02 15:04"),
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("translation_requests_%s.xlsx", time.Now().In(s.location).Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 译员口译日程导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个现场口译生成一个 VEVENT：
//   - UID = assignment_id
//   - DTSTART = scheduled_date，DTEND = DTSTART + duration_hours
//   - 已取消的申请不导出，文档翻译没有时间不导出

func (s *exportService) ExportCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.IsTranslator() {
		return nil, "", pkgerrors.ErrForbidden
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	statuses := []model.AssignmentStatus{model.AssignmentStatusAccepted, model.AssignmentStatusCompleted}
	list, _, err := s.repo.Assignment.ListByTranslator(ctx, actor.ProfileID, statuses, 0, exportMaxRows)
	if err != nil {
		return nil, "", storageError(s.logger, "查询申请失败", err)
	}

	cal := ics.NewCalendarFor(calendarProdID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("Lingua 口译日程")
	cal.SetXWRTimezone(s.location.String())

	events := 0
	for i := range list {
		a := &list[i]
		r := a.Request
		if r == nil || r.RequestType != model.RequestTypeLive || r.ScheduledDate == nil {
			continue
		}

		start := r.ScheduledDate.UTC()
		end := start
		if r.DurationHours != nil {
			end = start.Add(time.Duration(*r.DurationHours * float64(time.Hour)))
		}

		evt := cal.AddEvent(a.AssignmentID)
		evt.SetDtStampTime(time.Now().UTC())
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s (%s)", r.Title, languagePair(r)))
		if loc := locationText(r); loc != "-" {
			evt.SetLocation(loc)
		}
		if r.Description != nil {
			evt.SetDescription(*r.Description)
		}
		evt.SetStatus(calendarStatus(a.Status))
		events++
	}

	if events == 0 {
		return nil, "", ErrExportNoData
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("写入日历失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "lingua_schedule.ics", nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func (s *exportService) formatLocal(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(s.location).Format("2006-01-02 15:04")
}

func languagePair(r *model.TranslationRequest) string {
	src, dst := r.SourceLanguageID, r.TargetLanguageID
	if r.SourceLanguage != nil {
		src = strings.ToUpper(r.SourceLanguage.Code)
	}
	if r.TargetLanguage != nil {
		dst = strings.ToUpper(r.TargetLanguage.Code)
	}
	return src + "→" + dst
}

func locationText(r *model.TranslationRequest) string {
	if r.LocationType == nil {
		return "-"
	}
	text := string(*r.LocationType)
	if r.LocationDetails != nil && *r.LocationDetails != "" {
		text += ": " + *r.LocationDetails
	}
	return text
}

func floatOrDash(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func calendarStatus(status model.AssignmentStatus) ics.ObjectStatus {
	if status == model.AssignmentStatusCompleted {
		return ics.ObjectStatusCompleted
	}
	return ics.ObjectStatusConfirmed
}
