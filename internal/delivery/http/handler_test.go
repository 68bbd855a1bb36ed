package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"kotvukai/internal/analysis"
	"kotvukai/internal/chart"
	"kotvukai/internal/domain"
)

type fakeMarket struct {
	bars      []domain.Bar
	err       error
	fng       *domain.FearGreed
	tickers   map[string]domain.Ticker
	barsCalls int
}

func (f *fakeMarket) GetBars(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	f.barsCalls++
	if !domain.IsSupportedSymbol(symbol) {
		return nil, domain.ErrUnsupportedSymbol
	}
	if !tf.Valid() {
		return nil, domain.ErrUnsupportedTimeframe
	}
	return f.bars, f.err
}

func (f *fakeMarket) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	out := make([]domain.Ticker, 0, len(f.tickers))
	for _, t := range f.tickers {
		out = append(out, t)
	}
	return out, f.err
}

func (f *fakeMarket) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	t, ok := f.tickers[symbol]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeMarket) GetFearGreedIndex(ctx context.Context) (*domain.FearGreed, error) {
	if f.fng == nil {
		return nil, errors.New("fng down")
	}
	return f.fng, nil
}

type fakeAI struct {
	reply string
	users []string
}

func (a *fakeAI) Complete(ctx context.Context, system, user string) (string, error) {
	a.users = append(a.users, user)
	return a.reply, nil
}

func (a *fakeAI) Chat(ctx context.Context, system string, messages []domain.ChatMessage) (string, error) {
	return a.reply, nil
}

type fakeSignals struct {
	saved []*domain.SignalRecord
}

func (s *fakeSignals) ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	return s.saved, nil
}

func (s *fakeSignals) Append(ctx context.Context, rec *domain.SignalRecord) (uuid.UUID, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return uuid.Nil, err
	}
	rec.ID = uuid.New()
	s.saved = append(s.saved, rec)
	return rec.ID, nil
}

type fakePlans struct{}

func (fakePlans) List(ctx context.Context) ([]domain.Plan, error) {
	return domain.DefaultPlans, nil
}

type fakeChat struct{ err error }

func (c fakeChat) Reply(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "echo: " + message, nil
}

type testEnv struct {
	e         *echo.Echo
	market    *fakeMarket
	ai        *fakeAI
	signals   *fakeSignals
	extractor *analysis.Extractor
	viewport  *chart.Viewport
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	market := &fakeMarket{
		bars: []domain.Bar{
			{Time: 60, Open: 1, High: 2, Low: 1, Close: 2, Volume: 10},
			{Time: 120, Open: 2, High: 3, Low: 1, Close: 1.5, Volume: 12},
		},
		fng: &domain.FearGreed{Value: 42, Classification: "Fear"},
		tickers: map[string]domain.Ticker{
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 65000, PriceChangePercent: 2, HighPrice: 66000, LowPrice: 64000, Volume: 1000},
		},
	}
	ai := &fakeAI{reply: "## 📊 Технический анализ\nТренд **восходящий**\n## 🎯 Торговый сигнал\nLONG"}
	extractor := analysis.NewExtractor(ai)
	viewport := chart.NewViewport(800)
	sync := chart.NewSynchronizer(market, viewport, nil)
	signals := &fakeSignals{}

	e := echo.New()
	SetupRoutes(e, &RouterConfig{
		MarketHandler:   NewMarketHandler(market),
		ChartHandler:    NewChartHandler(sync, viewport),
		AnalysisHandler: NewAnalysisHandler(extractor, market),
		ChatHandler:     NewChatHandler(fakeChat{}),
		SignalHandler:   NewSignalHandler(signals),
		PlanHandler:     NewPlanHandler(fakePlans{}),
	})
	return &testEnv{e: e, market: market, ai: ai, signals: signals, extractor: extractor, viewport: viewport}
}

func (env *testEnv) do(method, path, body string) (*httptest.ResponseRecorder, Response) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestMarketHandler_Klines(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(http.MethodGet, "/api/klines", "")
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected 200 success, got %d %+v", rec.Code, resp)
	}

	tests := []struct {
		query string
		code  int
	}{
		{"?symbol=FOOUSDT", http.StatusBadRequest},
		{"?interval=2h", http.StatusBadRequest},
		{"?limit=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec, _ := env.do(http.MethodGet, "/api/klines"+tt.query, "")
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.query, tt.code, rec.Code)
		}
	}

	env.market.err = domain.ErrMalformedPayload
	rec, _ = env.do(http.MethodGet, "/api/klines", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for malformed upstream data, got %d", rec.Code)
	}
}

func TestChartHandler_ConfigureAndResize(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(http.MethodPost, "/api/chart/refresh", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 before configuration, got %d", rec.Code)
	}

	rec, _ = env.do(http.MethodPut, "/api/chart/config", `{"symbol":"ethusdt","timeframe":"4h","representation":"line"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var snap struct {
		Data chart.Snapshot `json:"data"`
	}
	rec, _ = env.do(http.MethodGet, "/api/chart", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Data.Config.Symbol != "ETHUSDT" || snap.Data.Config.Representation != domain.RepresentationLine {
		t.Errorf("unexpected config %+v", snap.Data.Config)
	}
	if snap.Data.LastPrice == nil || *snap.Data.LastPrice != 1.5 {
		t.Errorf("expected last price 1.5, got %v", snap.Data.LastPrice)
	}

	rec, _ = env.do(http.MethodPut, "/api/chart/config", `{"representation":"pie"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown representation, got %d", rec.Code)
	}

	rec, _ = env.do(http.MethodPost, "/api/chart/viewport", `{"width":1200}`)
	if rec.Code != http.StatusOK || env.viewport.Width() != 1200 {
		t.Errorf("expected width 1200, got %d (code %d)", env.viewport.Width(), rec.Code)
	}
	rec, _ = env.do(http.MethodPost, "/api/chart/viewport", `{"width":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero width, got %d", rec.Code)
	}

	rec, _ = env.do(http.MethodDelete, "/api/chart", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on teardown, got %d", rec.Code)
	}
	rec, _ = env.do(http.MethodPost, "/api/chart/refresh", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 after teardown, got %d", rec.Code)
	}
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	env := newTestEnv(t)

	body := `{"symbol":"btcusdt","price":65000,"change24h":1.5,"high":66000,"low":64000,"volume":1000,
		"marketData":{"weightedAvgPrice":"65100.5","quoteVolume":123456}}`
	rec, _ := env.do(http.MethodPost, "/api/ai/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Data struct {
			Symbol    string  `json:"symbol"`
			Direction *string `json:"direction"`
			Sections  []struct {
				Title string `json:"title"`
			} `json:"sections"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Data.Symbol != "BTCUSDT" || out.Data.Direction == nil || *out.Data.Direction != "LONG" {
		t.Errorf("unexpected analysis %+v", out.Data)
	}
	if len(out.Data.Sections) != 2 {
		t.Errorf("expected 2 sections, got %d", len(out.Data.Sections))
	}
	if len(env.ai.users) != 1 || !strings.Contains(env.ai.users[0], "65100.5") || !strings.Contains(env.ai.users[0], "42") {
		t.Errorf("expected prompt with market data and fetched fng, got %q", env.ai.users)
	}

	rec, _ = env.do(http.MethodPost, "/api/ai/analyze", `{"symbol":"BTCUSDT"}`)
	if rec.Code != http.StatusOK || len(env.ai.users) != 1 {
		t.Errorf("expected cached analysis without a new AI call, got %d calls", len(env.ai.users))
	}

	rec, _ = env.do(http.MethodPost, "/api/ai/analyze", `{"symbol":"NOPE"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported symbol, got %d", rec.Code)
	}
}

func TestAnalysisHandler_RequestListAndReset(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(http.MethodGet, "/api/ai/analyses/BTCUSDT", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 before any analysis, got %d", rec.Code)
	}

	rec, _ = env.do(http.MethodPost, "/api/ai/analyze/BTCUSDT/request", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	env.extractor.Wait()

	rec, _ = env.do(http.MethodPost, "/api/ai/analyze/ETHUSDT/request", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when ticker is missing, got %d", rec.Code)
	}

	var list struct {
		Data struct {
			Analyzed int `json:"analyzed"`
			Cards    []struct {
				Symbol  string `json:"symbol"`
				Preview string `json:"preview"`
			} `json:"cards"`
		} `json:"data"`
	}
	rec, _ = env.do(http.MethodGet, "/api/ai/analyses", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Data.Analyzed != 1 || len(list.Data.Cards) != 1 || list.Data.Cards[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected list %+v", list.Data)
	}

	rec, _ = env.do(http.MethodGet, "/api/ai/analyses/btcusdt", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for stored analysis, got %d", rec.Code)
	}

	env.do(http.MethodDelete, "/api/ai/analyses", "")
	if env.extractor.Count() != 0 {
		t.Errorf("expected reset to clear records, got %d", env.extractor.Count())
	}
}

func TestChatHandler(t *testing.T) {
	env := newTestEnv(t)

	var out struct {
		Data struct {
			Reply string `json:"reply"`
		} `json:"data"`
	}
	rec, _ := env.do(http.MethodPost, "/api/ai/chat", `{"message":"hi","history":[]}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Data.Reply != "echo: hi" {
		t.Errorf("unexpected reply %q", out.Data.Reply)
	}

	h := NewChatHandler(fakeChat{err: domain.ErrInvalidInput})
	c := env.e.NewContext(httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{}`)), httptest.NewRecorder())
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if err := h.Chat(c); err != nil {
		t.Fatal(err)
	}
	if code := c.Response().Status; code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", code)
	}
}

func TestSignalHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(http.MethodPost, "/api/signals", `{"pair":"btcusdt","type":"long","entry":65000,"tp":67000,"sl":64000,"reason":"breakout","accuracy":70}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.signals.saved) != 1 || env.signals.saved[0].Pair != "BTCUSDT" {
		t.Errorf("unexpected saved signals %+v", env.signals.saved)
	}

	rec, _ = env.do(http.MethodPost, "/api/signals", `{"pair":"BTCUSDT","type":"SIDEWAYS"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid type, got %d", rec.Code)
	}

	var list struct {
		Data []domain.SignalRecord `json:"data"`
	}
	rec, _ = env.do(http.MethodGet, "/api/signals", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 1 || list.Data[0].Type != domain.SignalLong {
		t.Errorf("unexpected list %+v", list.Data)
	}
}

func TestPlanHandler(t *testing.T) {
	env := newTestEnv(t)

	var out struct {
		Data []domain.Plan `json:"data"`
	}
	rec, _ := env.do(http.MethodGet, "/api/plans", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Data) != 3 || out.Data[0].Name != "Free" {
		t.Errorf("unexpected plans %+v", out.Data)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestOpsRouter(t *testing.T) {
	signals := &fakeSignals{}
	refreshed := 0
	h := NewOpsRouter(OpsConfig{
		DB:      pinger{},
		Signals: signals,
		Refresh: func(ctx context.Context) error { refreshed++; return nil },
	})

	for _, tt := range []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/chart/refresh", http.StatusOK},
		{http.MethodGet, "/signals/recent", http.StatusOK},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.code, rec.Code)
		}
	}
	if refreshed != 1 {
		t.Errorf("expected one refresh, got %d", refreshed)
	}

	down := NewOpsRouter(OpsConfig{DB: pinger{err: errors.New("down")}, Signals: signals})
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "unhealthy") {
		t.Errorf("expected 503 unhealthy, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAnalysisHandler_FearGreedAsString(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(http.MethodPost, "/api/ai/analyze", `{"symbol":"BTCUSDT","price":65000,"change24h":1,"high":66000,"low":64000,"volume":10,"fng":"45"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.ai.users) != 1 || !strings.Contains(env.ai.users[0], "жадности: 45") {
		t.Errorf("expected prompt with caller fng 45, got %q", env.ai.users)
	}

	for _, fng := range []string{`"abc"`, `150`, `"4.5"`} {
		rec, _ := env.do(http.MethodPost, "/api/ai/analyze", `{"symbol":"ETHUSDT","price":1,"fng":`+fng+`}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("fng %s: expected 400, got %d", fng, rec.Code)
		}
	}
}

func TestAnalysisHandler_NullFearGreedIsFetched(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(http.MethodPost, "/api/ai/analyze", `{"symbol":"BTCUSDT","price":65000,"fng":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(env.ai.users) != 1 || !strings.Contains(env.ai.users[0], "жадности: 42") {
		t.Errorf("expected fetched fng 42 in prompt, got %q", env.ai.users)
	}
}

func TestHealthCheck(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		code int
	}{
		{"healthy", nil, http.StatusOK},
		{"storage down", errors.New("down"), http.StatusServiceUnavailable},
	} {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			e := echo.New()
			SetupRoutes(e, &RouterConfig{
				MarketHandler:   NewMarketHandler(env.market),
				ChartHandler:    NewChartHandler(chart.NewSynchronizer(env.market, env.viewport, nil), env.viewport),
				AnalysisHandler: NewAnalysisHandler(env.extractor, env.market),
				ChatHandler:     NewChatHandler(fakeChat{}),
				SignalHandler:   NewSignalHandler(env.signals),
				PlanHandler:     NewPlanHandler(fakePlans{}),
				HealthCheck:     func(ctx context.Context) error { return tt.err },
			})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
