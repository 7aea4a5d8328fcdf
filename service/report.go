// Package service は日報の登録と一覧取得を提供します。
package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/stsysd/nippo/model"
	"github.com/stsysd/nippo/store"
)

// ReportService はフォームの入力値から日報を作成し、ストアに保存します。
type ReportService struct {
	store  store.ReportStore
	logger *zap.Logger
}

// NewReportService は新しいReportServiceを作成します。
func NewReportService(store store.ReportStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:  store,
		logger: logger.Named("report_service"),
	}
}

// Submit はフィールド値から日報を作成して保存し、利用者向けの確認メッセージを返します。
// 数値項目が変換できない場合や必須項目が空の場合はValidationErrorを返し、何も保存しません。
func (s *ReportService) Submit(ctx context.Context, fields map[string]string) (string, error) {
	report, err := model.NewReportFromFields(fields)
	if err != nil {
		s.logger.Info("report rejected", zap.Error(err))
		return "", err
	}

	if err := s.store.Append(ctx, report); err != nil {
		s.logger.Error("failed to save report", zap.Error(err))
		return "", err
	}

	s.logger.Info("report saved",
		zap.Int64("id", report.ID),
		zap.String("team", report.Team),
		zap.String("site_name", report.SiteName),
	)
	return fmt.Sprintf("「%sチーム」の報告が保存されました！", report.Team), nil
}

// ListReports はすべての日報を新しい順に返します。
func (s *ReportService) ListReports(ctx context.Context) ([]*model.Report, error) {
	reports, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list reports", zap.Error(err))
		return nil, err
	}
	if reports == nil {
		reports = []*model.Report{}
	}

	// 古い順で返すストアの場合は逆順にする
	order := s.store.Order()
	if !order.IsDesc() {
		slices.Reverse(reports)
	}
	s.logger.Debug("reports listed", zap.Int("count", len(reports)), zap.Stringer("store_order", order))
	return reports, nil
}
