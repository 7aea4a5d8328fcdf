package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/stsysd/nippo/model"
)

// FileStore はBOM付きUTF-8のCSVファイルを使用したReportStoreの実装です。
// Excelでそのまま開けるようにBOMを先頭に付与します。
type FileStore struct {
	path   string
	logger *zap.Logger
	// 同一プロセス内での追記を直列化する
	mu sync.Mutex
}

// NewFileStore は新しいFileStoreを作成します。
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, model.NewConfigurationError("csv file", "path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, model.NewPersistenceError("create data directory", err)
	}

	return &FileStore{
		path:   path,
		logger: logger.Named("file_store"),
	}, nil
}

// Append は日報をCSVの末尾に1行追記します。
// ファイルが存在しないか空の場合は、BOMとヘッダー行を先に書き込みます。
func (s *FileStore) Append(ctx context.Context, report *model.Report) error {
	// バリデーション（不正な行を書き込まない）
	if err := report.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return model.NewPersistenceError("open csv file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return model.NewPersistenceError("stat csv file", err)
	}

	bomOnly, err := hasOnlyBOM(f, info.Size())
	if err != nil {
		f.Close()
		return model.NewPersistenceError("read csv file", err)
	}

	var w io.Writer = f
	isNew := info.Size() == 0 || bomOnly
	if info.Size() == 0 {
		// 新規ファイルのみBOMを付与する
		w = transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	}

	cw := csv.NewWriter(w)
	if isNew {
		if err := cw.Write(model.ReportFields); err != nil {
			f.Close()
			return model.NewPersistenceError("write csv header", err)
		}
	}
	if err := cw.Write(report.Row()); err != nil {
		f.Close()
		return model.NewPersistenceError("write csv row", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return model.NewPersistenceError("flush csv row", err)
	}
	if tw, ok := w.(*transform.Writer); ok {
		if err := tw.Close(); err != nil {
			f.Close()
			return model.NewPersistenceError("flush csv row", err)
		}
	}
	if err := f.Close(); err != nil {
		return model.NewPersistenceError("close csv file", err)
	}

	s.logger.Debug("report appended", zap.String("path", s.path), zap.Bool("new_file", isNew))
	return nil
}

// ListAll はCSVファイルのすべての行を、ファイル中の順序（古い順）で返します。
// ファイルが存在しない場合は空のスライスを返します。
func (s *FileStore) ListAll(ctx context.Context) ([]*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*model.Report{}, nil
	}
	if err != nil {
		return nil, model.NewPersistenceError("open csv file", err)
	}
	defer f.Close()

	// 先頭のBOMがあれば読み飛ばし、引用フィールド内のCRを退避する
	r := csv.NewReader(transform.NewReader(f, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		&quotedCR{},
	)))

	header, err := r.Read()
	if err == io.EOF {
		return []*model.Report{}, nil
	}
	if err != nil {
		return nil, model.NewPersistenceError("read csv header", err)
	}

	reports := []*model.Report{}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, model.NewPersistenceError("read csv row", err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = restoreCR(record[i])
		}

		report, err := model.ReportFromRow(int64(len(reports)+1), row)
		if err != nil {
			return nil, model.NewPersistenceError("parse csv row", fmt.Errorf("line %d: %w", line, err))
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// Order はCSVの並び順（古い順）を返します。
func (s *FileStore) Order() model.SortOrder {
	return model.SortOrderAsc
}

// Close はFileStoreでは何もしません。
func (s *FileStore) Close() error {
	return nil
}

// bom はUTF-8のバイトオーダーマークです。
var bom = []byte{0xEF, 0xBB, 0xBF}

// hasOnlyBOM はファイルの内容がBOMだけかどうかを返します。
func hasOnlyBOM(f *os.File, size int64) (bool, error) {
	if size != int64(len(bom)) {
		return false, nil
	}
	head := make([]byte, len(bom))
	if _, err := f.ReadAt(head, 0); err != nil {
		return false, err
	}
	return bytes.Equal(head, bom), nil
}

// crMarker はUTF-8として現れないバイトで、退避したCRを表します。
const crMarker = 0xFF

// quotedCR は引用符で囲まれたフィールド内のCRをcrMarkerに置き換えます。
// encoding/csvは引用フィールド内の\r\nを\nに畳むため、読み込み前に退避してrestoreCRで戻す。
// UTF-8デコード後のストリームに対して使用すること。
type quotedCR struct {
	inQuote bool
}

func (t *quotedCR) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		c := src[nSrc]
		switch {
		case c == '"':
			// エスケープされた "" は2回反転するので状態は変わらない
			t.inQuote = !t.inQuote
		case c == '\r' && t.inQuote:
			c = crMarker
		}
		dst[nDst] = c
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}

func (t *quotedCR) Reset() {
	t.inQuote = false
}

func restoreCR(field string) string {
	return strings.ReplaceAll(field, string([]byte{crMarker}), "\r")
}
