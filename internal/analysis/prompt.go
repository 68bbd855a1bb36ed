package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"kotvukai/internal/domain"
)

// Lang selects the language of prompts and failure texts
type Lang string

const (
	LangRU Lang = "ru"
	LangEN Lang = "en"
)

// ParseLang maps a config value onto a Lang, defaulting to Russian
func ParseLang(s string) Lang {
	if strings.EqualFold(strings.TrimSpace(s), string(LangEN)) {
		return LangEN
	}
	return LangRU
}

type texts struct {
	analysisSystem string
	chatSystem     string
	apiError       string
	connError      string
	emptyReply     string
	template       string
	extra          string
}

var catalog = map[Lang]texts{
	LangRU: {
		analysisSystem: "Ты — профессиональный крипто-аналитик. Отвечай подробно на русском языке. Используй markdown форматирование.",
		chatSystem:     "Ты — AI помощник на платформе KotvukAI. Отвечай на вопросы о криптовалютах, трейдинге, техническом и фундаментальном анализе. Будь полезным и дружелюбным. Отвечай на том языке, на котором задан вопрос.",
		apiError:       "Ошибка API: ",
		connError:      "Ошибка подключения к AI: ",
		emptyReply:     "Ошибка получения ответа от AI",
		extra:          "- Дополнительные данные рынка: %s\n",
		template: `Проанализируй криптовалюту %s.

Текущие данные:
- Цена: $%s
- Изменение за 24ч: %s%%
- Максимум 24ч: $%s
- Минимум 24ч: $%s
- Объём: %s
- Индекс страха и жадности: %s
%s
Дай подробный анализ по следующим пунктам:

## 📊 Технический анализ
Уровни поддержки и сопротивления, текущий тренд, паттерны на графике.

## 📈 Фундаментальный анализ
Общая ситуация на рынке, влияющие факторы.

## 🎯 Торговый сигнал
Укажи: LONG, SHORT или НЕЙТРАЛЬНО
- Точка входа
- Take Profit (TP)
- Stop Loss (SL)

## 💡 Объяснение
Почему именно этот сигнал? Подробное обоснование.

## 📊 Уверенность
Оценка уверенности в сигнале в процентах (0-100%%).`,
	},
	LangEN: {
		analysisSystem: "You are a professional crypto analyst. Answer in detail in English. Use markdown formatting.",
		chatSystem:     "You are the AI assistant of the KotvukAI platform. Answer questions about cryptocurrencies, trading, technical and fundamental analysis. Be helpful and friendly. Reply in the language the question was asked in.",
		apiError:       "API error: ",
		connError:      "AI connection error: ",
		emptyReply:     "No response received from AI",
		extra:          "- Additional market data: %s\n",
		template: `Analyze the cryptocurrency %s.

Current data:
- Price: $%s
- 24h change: %s%%
- 24h high: $%s
- 24h low: $%s
- Volume: %s
- Fear & Greed index: %s
%s
Give a detailed analysis covering:

## 📊 Technical analysis
Support and resistance levels, current trend, chart patterns.

## 📈 Fundamental analysis
Overall market situation and driving factors.

## 🎯 Trading signal
State one of: LONG, SHORT or NEUTRAL
- Entry point
- Take Profit (TP)
- Stop Loss (SL)

## 💡 Explanation
Why this signal? Detailed reasoning.

## 📊 Confidence
Confidence in the signal as a percentage (0-100%%).`,
	},
}

func textsFor(lang Lang) texts {
	if t, ok := catalog[lang]; ok {
		return t
	}
	return catalog[LangRU]
}

// AnalysisSystemPrompt is the system message for single-symbol analysis
func AnalysisSystemPrompt(lang Lang) string {
	return textsFor(lang).analysisSystem
}

// ChatSystemPrompt is the system message for the assistant chat
func ChatSystemPrompt(lang Lang) string {
	return textsFor(lang).chatSystem
}

// BuildPrompt renders the structured user prompt for one snapshot
func BuildPrompt(s domain.MarketSnapshot, lang Lang) string {
	t := textsFor(lang)

	symbol := s.Symbol
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	fng := "N/A"
	if s.FearGreed != nil {
		fng = strconv.Itoa(*s.FearGreed)
	}
	extra := ""
	if len(s.MarketData) > 0 {
		if b, err := json.Marshal(s.MarketData); err == nil {
			extra = fmt.Sprintf(t.extra, b)
		}
	}

	return fmt.Sprintf(t.template,
		symbol,
		formatNumber(s.Price),
		formatNumber(s.Change24h),
		formatNumber(s.High),
		formatNumber(s.Low),
		formatNumber(s.Volume),
		fng,
		extra,
	)
}

// SnapshotFromTicker builds the AI input for a ticker, carrying the extended
// market data the dashboard has on hand
func SnapshotFromTicker(t domain.Ticker, fearGreed *int) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Symbol:    t.Symbol,
		Price:     t.LastPrice,
		Change24h: t.PriceChangePercent,
		High:      t.HighPrice,
		Low:       t.LowPrice,
		Volume:    t.Volume,
		FearGreed: fearGreed,
		MarketData: map[string]string{
			"weightedAvgPrice": formatNumber(t.WeightedAvgPrice),
			"quoteVolume":      formatNumber(t.QuoteVolume),
		},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
