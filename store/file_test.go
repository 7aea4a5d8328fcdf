package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stsysd/nippo/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func newTestReport(t *testing.T, site string, volume int) *model.Report {
	t.Helper()
	return &model.Report{
		ReportDate:     "2024-05-01",
		SiteName:       site,
		Team:           "永野",
		PersonInCharge: "稲垣",
		Volume:         volume,
		Defects:        2,
		Condition:      "良好",
		Notes:          "備考, \"引用\"\n2行目",
	}
}

func setupFileStore(t *testing.T) *FileStore {
	t.Helper()
	// サブディレクトリが自動作成されることも確認する
	path := filepath.Join(t.TempDir(), "data", "reports.csv")
	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestFileStore_ListAllWithoutFile(t *testing.T) {
	s := setupFileStore(t)

	reports, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestFileStore_AppendAndListAll(t *testing.T) {
	s := setupFileStore(t)
	ctx := context.Background()

	first := newTestReport(t, "Site A", 84)
	second := newTestReport(t, "Site B", 10)
	second.DeliveryDestination = "第二倉庫"

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	reports, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// ファイル中の順序（古い順）で返る
	assert.Equal(t, "Site A", reports[0].SiteName)
	assert.Equal(t, "Site B", reports[1].SiteName)
	assert.Equal(t, int64(1), reports[0].ID)
	assert.Equal(t, int64(2), reports[1].ID)
	assert.Equal(t, model.SortOrderAsc, s.Order())

	// 識別子以外の値がそのまま復元される
	got := *reports[1]
	got.ID = 0
	assert.Equal(t, *second, got)
}

func TestFileStore_BOMAndHeaderWrittenOnce(t *testing.T) {
	s := setupFileStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, newTestReport(t, "Site", i)))
	}

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, utf8BOM), "file should start with a UTF-8 BOM")
	assert.Equal(t, 1, bytes.Count(data, utf8BOM), "BOM should appear only once")

	header := strings.Join(model.ReportFields, ",")
	assert.Equal(t, 1, strings.Count(string(data), header), "header should be written only once")
}

func TestFileStore_HeaderWrittenForEmptyFile(t *testing.T) {
	s := setupFileStore(t)
	ctx := context.Background()

	// 空ファイルが既に存在する場合もヘッダーを書き込む
	require.NoError(t, os.WriteFile(s.path, nil, 0644))
	require.NoError(t, s.Append(ctx, newTestReport(t, "Site A", 1)))

	reports, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Site A", reports[0].SiteName)
}

func TestFileStore_HeaderWrittenForBOMOnlyFile(t *testing.T) {
	s := setupFileStore(t)
	ctx := context.Background()

	// 表計算ソフトで保存した空のCSVはBOMだけを含む
	require.NoError(t, os.WriteFile(s.path, utf8BOM, 0644))
	require.NoError(t, s.Append(ctx, newTestReport(t, "Site A", 1)))
	require.NoError(t, s.Append(ctx, newTestReport(t, "Site B", 2)))

	reports, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Site A", reports[0].SiteName)
	assert.Equal(t, "Site B", reports[1].SiteName)

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, utf8BOM), "BOM should appear only once")
	assert.True(t, bytes.HasPrefix(data, append(append([]byte{}, utf8BOM...), model.FieldReportDate...)))
}

func TestFileStore_PreservesCarriageReturns(t *testing.T) {
	s := setupFileStore(t)
	ctx := context.Background()

	tests := []string{
		"午後から雨\r\n搬入は翌日",
		"末尾に改行\r\n",
		"CRのみ\r途中",
		"\"引用\"\r\n\"\"",
	}
	for _, notes := range tests {
		report := newTestReport(t, "Site", 1)
		report.Notes = notes
		require.NoError(t, s.Append(ctx, report))
	}

	reports, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, len(tests))
	for i, want := range tests {
		assert.Equal(t, want, reports[i].Notes)
	}
}

func TestFileStore_ReadsCRLFTerminatedFile(t *testing.T) {
	s := setupFileStore(t)

	// 行末がCRLFのファイル（表計算ソフトで保存したもの）も読める
	content := strings.Join(model.ReportFields, ",") + "\r\n" +
		"2024-04-30,Site Z,檀上,眞鍋,5,,,,,,,0,普通,\"1行目\r\n2行目\"\r\n" +
		"2024-05-01,Site Y,永野,稲垣,6,,,,,,,1,良好,\r\n"
	require.NoError(t, os.WriteFile(s.path, []byte(content), 0644))

	reports, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "1行目\r\n2行目", reports[0].Notes)
	assert.Equal(t, "", reports[1].Notes)
	assert.Equal(t, "Site Y", reports[1].SiteName)
}

func TestFileStore_ReadsFileWithoutBOM(t *testing.T) {
	s := setupFileStore(t)

	content := strings.Join(model.ReportFields, ",") + "\n" +
		"2024-04-30,Site Z,檀上,眞鍋,5,,,,,,,0,普通,\n"
	require.NoError(t, os.WriteFile(s.path, []byte(content), 0644))

	reports, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-04-30", reports[0].ReportDate)
	assert.Equal(t, 5, reports[0].Volume)
	assert.Equal(t, "普通", reports[0].Condition)
}

func TestFileStore_InvalidReportIsNotWritten(t *testing.T) {
	s := setupFileStore(t)

	invalid := newTestReport(t, "", 1)
	err := s.Append(context.Background(), invalid)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))

	_, err = os.Stat(s.path)
	assert.True(t, os.IsNotExist(err), "no file should be created for an invalid report")
}

func TestFileStore_MalformedFile(t *testing.T) {
	s := setupFileStore(t)

	content := strings.Join(model.ReportFields, ",") + "\n" +
		"2024-04-30,Site Z,檀上,眞鍋,many,,,,,,,0,普通,\n"
	require.NoError(t, os.WriteFile(s.path, []byte(content), 0644))

	_, err := s.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsPersistenceError(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestFileStore_WrongColumnCount(t *testing.T) {
	s := setupFileStore(t)

	content := strings.Join(model.ReportFields, ",") + "\n" + "2024-04-30,Site Z\n"
	require.NoError(t, os.WriteFile(s.path, []byte(content), 0644))

	_, err := s.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsPersistenceError(err))
}

func TestFileStore_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// ディレクトリをファイルパスとして指定すると書き込みに失敗する
	s, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	err = s.Append(context.Background(), newTestReport(t, "Site A", 1))
	require.Error(t, err)
	assert.True(t, model.IsPersistenceError(err))
}
