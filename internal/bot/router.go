// Package bot interprets chat messages about the RFSD dataset and builds
// replies from backend responses. It is transport-independent; the Telegram
// wiring lives in the command layer.
package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/queryparse"
	"github.com/NeuroTechWizards/ai-market/pkg/rfsdclient"
)

// defaultYears is the lookup window when the message names no years.
var defaultYears = []int{2019, 2020, 2021, 2022, 2023}

// maxTextRows caps the rows shown in a text reply; larger series point the
// user to the XLSX export.
const maxTextRows = 10

// Welcome is the /start greeting.
const Welcome = "Привет! Я бот для работы с базой фин. отчетности (RFSD).\n\n" +
	"Примеры команд:\n" +
	"1. 'ИНН 7722514880' -> получу базовые данные за 5 лет\n" +
	"2. 'ИНН 7722514880 выручка' -> только динамика выручки\n" +
	"3. 'ИНН 7722514880 xlsx' -> скачаю полный Excel-профиль\n" +
	"4. 'ИНН 7722514880 сравни с рынком' -> анализ против отрасли\n"

// Intent is what the user asked about.
type Intent string

const (
	IntentRevenue Intent = "revenue"
	IntentProfit  Intent = "profit"
	IntentProfile Intent = "full_profile"
	IntentAnalyze Intent = "analyze"
)

// Format is the requested reply shape.
type Format string

const (
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

// Reply is a transport-independent bot answer: either text or a document.
type Reply struct {
	Text     string
	Document []byte
	Filename string
	Caption  string
}

// IsDocument reports whether the reply carries a file.
func (r Reply) IsDocument() bool {
	return len(r.Document) > 0
}

// Router parses messages and queries the backend.
type Router struct {
	client rfsdclient.Client
}

// NewRouter creates a router backed by the given client.
func NewRouter(client rfsdclient.Client) *Router {
	return &Router{client: client}
}

// ParseIntent classifies the message. The default is the brief profile.
func ParseIntent(text string) (Intent, Format) {
	format := FormatText
	if queryparse.HasAnyFold(text, "xlsx", "эксель", "excel") {
		format = FormatXLSX
	}

	switch {
	case queryparse.HasAnyFold(text, "сравни", "рынк", "рынок", "анализ", "бенчмарк"):
		return IntentAnalyze, format
	case queryparse.HasAnyFold(text, "выруч"):
		return IntentRevenue, format
	case queryparse.HasAnyFold(text, "прибыл"):
		return IntentProfit, format
	default:
		return IntentProfile, format
	}
}

// Route interprets one message and produces a reply. Backend failures become
// user-facing text; the bot never surfaces raw errors.
func (r *Router) Route(ctx context.Context, text string) Reply {
	inn := queryparse.ExtractINN(text)
	if inn == "" {
		return Reply{Text: "Пришлите ИНН (10 или 12 цифр) для поиска."}
	}

	years := queryparse.ParseYears(text, defaultYears)
	intent, format := ParseIntent(text)

	zap.L().Info("bot routing",
		zap.String("inn", inn),
		zap.String("intent", string(intent)),
		zap.String("format", string(format)),
		zap.Ints("years", years),
	)

	if format == FormatXLSX {
		return r.exportProfile(ctx, inn, years, intent)
	}

	switch intent {
	case IntentAnalyze:
		return r.analyze(ctx, text, inn)
	case IntentRevenue:
		return r.revenue(ctx, inn, years)
	case IntentProfit:
		return r.profit(ctx, inn, years)
	default:
		return r.profile(ctx, inn, years)
	}
}

// exportProfile answers any xlsx request with the full profile workbook,
// which contains every indicator the narrower intents would cover.
func (r *Router) exportProfile(ctx context.Context, inn string, years []int, intent Intent) Reply {
	prefix := map[Intent]string{
		IntentRevenue: "revenue",
		IntentProfit:  "profit",
		IntentProfile: "profile",
		IntentAnalyze: "profile",
	}[intent]

	data, err := r.client.ExportFullProfileXLSX(ctx, inn, years)
	if err != nil {
		zap.L().Warn("bot export failed", zap.String("inn", inn), zap.Error(err))
		if rfsdclient.IsNotFound(err) {
			return Reply{Text: fmt.Sprintf("Данные для ИНН %s не найдены.", inn)}
		}
		return Reply{Text: "Не удалось сгенерировать файл. Возможно, нет данных или сервис недоступен."}
	}

	return Reply{
		Document: data,
		Filename: fmt.Sprintf("rfsd_%s_%s.xlsx", prefix, inn),
		Caption:  fmt.Sprintf("Отчет по ИНН %s за %d-%d", inn, years[0], years[len(years)-1]),
	}
}

func (r *Router) analyze(ctx context.Context, text, inn string) Reply {
	answer, err := r.client.Analyze(ctx, text)
	if err != nil {
		zap.L().Warn("bot analyze failed", zap.String("inn", inn), zap.Error(err))
		if rfsdclient.IsNotFound(err) {
			return Reply{Text: fmt.Sprintf("Данные для ИНН %s не найдены.", inn)}
		}
		return Reply{Text: "Анализ сейчас недоступен, попробуйте позже."}
	}
	return Reply{Text: answer}
}

func (r *Router) revenue(ctx context.Context, inn string, years []int) Reply {
	data, err := r.client.CompanyRevenueTimeseries(ctx, inn, years)
	if err != nil || len(data.Series) == 0 {
		return Reply{Text: fmt.Sprintf("Нет данных по выручке для ИНН %s.", inn)}
	}

	lines := []string{fmt.Sprintf("📊 Выручка ИНН %s", inn), ""}
	for i, p := range data.Series {
		if i >= maxTextRows {
			lines = append(lines, "... (показано первые 10)")
			break
		}
		lines = append(lines, fmt.Sprintf("%d: %s", p.Year, FormatNumber(p.Revenue)))
	}
	if len(data.Series) > maxTextRows {
		lines = append(lines, "", "ℹ️ Скажите 'xlsx' чтобы получить всё.")
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (r *Router) profit(ctx context.Context, inn string, years []int) Reply {
	data, err := r.client.CompanyTimeseries(ctx, inn, years, []string{"inn", "year", "line_2400"}, 100)
	if err != nil || len(data.Rows) == 0 {
		return Reply{Text: fmt.Sprintf("Нет данных по прибыли для ИНН %s.", inn)}
	}

	lines := []string{fmt.Sprintf("💰 Чистая прибыль ИНН %s", inn), ""}
	for i, row := range data.Rows {
		if i >= maxTextRows {
			lines = append(lines, "... (показано первые 10)")
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s", cellString(row["year"]), FormatCell(row["line_2400"])))
	}
	if len(data.Rows) > maxTextRows {
		lines = append(lines, "", "ℹ️ Скажите 'xlsx' чтобы получить всё.")
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (r *Router) profile(ctx context.Context, inn string, years []int) Reply {
	data, err := r.client.CompanyTimeseries(ctx, inn, years, []string{"inn", "year", "line_2110", "line_2400"}, 100)
	if err != nil || len(data.Rows) == 0 {
		return Reply{Text: fmt.Sprintf("Данные для ИНН %s не найдены.", inn)}
	}

	lines := []string{
		fmt.Sprintf("🏢 Профиль ИНН %s", inn),
		"Год | Выручка | Прибыль",
		"--- | --- | ---",
	}
	for i, row := range data.Rows {
		if i >= maxTextRows {
			lines = append(lines, "... (показано первые 10)")
			break
		}
		lines = append(lines, fmt.Sprintf("%s | %s | %s",
			cellString(row["year"]),
			FormatCell(row["line_2110"]),
			FormatCell(row["line_2400"]),
		))
	}
	lines = append(lines, "", "💡 Напишите 'xlsx', чтобы скачать полный отчет.")
	return Reply{Text: strings.Join(lines, "\n")}
}
