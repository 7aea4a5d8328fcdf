// Package store は、日報データの永続化機能を提供します。
package store

import (
	"context"

	"github.com/stsysd/nippo/model"
)

// ReportStore は日報の保存と取得を行うインターフェースです。
type ReportStore interface {
	// Append は日報を1件保存します。
	Append(ctx context.Context, report *model.Report) error
	// ListAll は保存されているすべての日報を取得します。
	ListAll(ctx context.Context) ([]*model.Report, error)
	// Order はListAllが返す並び順を返します。
	Order() model.SortOrder
	// Close はストアの接続を閉じます。
	Close() error
}

var (
	_ ReportStore = (*FileStore)(nil)
	_ ReportStore = (*TableStore)(nil)
)
