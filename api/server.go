// Package api は日報アプリのHTTPサーバー実装を提供します。
package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/stsysd/nippo/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// flashCookieName は送信完了メッセージを一覧画面に渡すためのクッキー名です。
const flashCookieName = "nippo_flash"

// ReportService はサーバーが利用する日報サービスのインターフェースです。
type ReportService interface {
	Submit(ctx context.Context, fields map[string]string) (string, error)
	ListReports(ctx context.Context) ([]*model.Report, error)
}

// Server はHTTPサーバーの構造体です。
type Server struct {
	router  *http.ServeMux
	handler http.Handler
	service ReportService
	choices *model.Choices
	pages   map[string]*template.Template
	logger  *zap.Logger
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewServer は新しいサーバーインスタンスを生成します。
func NewServer(service ReportService, choices *model.Choices, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if choices == nil {
		choices = model.DefaultChoices()
	}

	pages, err := parsePages("index.html", "reports.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:  http.NewServeMux(),
		service: service,
		choices: choices,
		pages:   pages,
		logger:  logger.Named("api"),
	}
	s.routes()
	s.handler = requestIDMiddleware(s.accessLogMiddleware(s.router))
	return s, nil
}

// parsePages はレイアウトと各ページのテンプレートを組み合わせて読み込みます。
func parsePages(names ...string) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// routes はエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealthCheck)

	// 画面
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /reports", s.handleReports)
	s.router.HandleFunc("POST /submit", s.handleSubmit)

	// JSON API
	s.router.HandleFunc("GET /api/v0/reports", s.handleListReports)
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex は入力フォームを表示します。
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", map[string]any{
		"Title":   "日報入力",
		"Choices": s.choices,
	})
}

// handleReports は報告一覧を新しい順に表示します。
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.service.ListReports(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.render(w, r, "reports.html", map[string]any{
		"Title":   "報告一覧",
		"Reports": reports,
		"Flash":   popFlash(w, r),
	})
}

// handleSubmit はフォームの送信を受け付け、保存後に一覧画面へリダイレクトします。
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(model.ReportFields))
	for _, name := range model.ReportFields {
		if r.PostForm.Has(name) {
			fields[name] = r.PostForm.Get(name)
		}
	}

	msg, err := s.service.Submit(r.Context(), fields)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	setFlash(w, msg)
	http.Redirect(w, r, "/reports", http.StatusSeeOther)
}

// handleListReports は報告一覧をJSONで返します。
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.service.ListReports(r.Context())
	if err != nil {
		log := loggerFromContext(r.Context(), s.logger)
		log.Error("failed to list reports", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to list reports",
			Code:  http.StatusInternalServerError,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, reports)
}

// writeServiceError はエラーの種類に応じたステータスコードでエラーを返します。
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := loggerFromContext(r.Context(), s.logger)

	// 不正なCSV行はValidationErrorを内包するため、先に永続化エラーを判定する
	var pe *model.PersistenceError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &pe):
		log.Error("persistence error", zap.Error(err))
		http.Error(w, "データの保存または読み込みに失敗しました", http.StatusInternalServerError)
	case errors.As(err, &ve):
		http.Error(w, "入力内容に誤りがあります: "+ve.Error(), http.StatusBadRequest)
	default:
		log.Error("unexpected error", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// render はテンプレートをバッファに描画してから書き出します。
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		loggerFromContext(r.Context(), s.logger).Error("failed to render template",
			zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// writeJSON はJSON形式でレスポンスを返却します。
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash はフラッシュメッセージを取り出し、クッキーを削除します。
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// Run はサーバーを指定されたアドレスで起動し、ctxがキャンセルされると停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
