package common

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"fjacquet/stmt-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

type sampleRow struct {
	Date   string `csv:"日付"`
	Shop   string `csv:"店名"`
	Amount string `csv:"金額"`
}

func sjis(t *testing.T, s string) []byte {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestDecodeFrame_UTF8WithBOM(t *testing.T) {
	content := "\ufeff日付,店名,金額\n2024/01/05,コンビニ,500\n2024/01/06,書店,1200\n"

	rows, err := DecodeFrame[sampleRow](strings.NewReader(content), "a.csv",
		FrameConfig{Encoding: EncodingUTF8}, []string{"日付", "店名", "金額"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024/01/05", rows[0].Date)
	assert.Equal(t, "コンビニ", rows[0].Shop)
	assert.Equal(t, "1200", rows[1].Amount)
}

func TestDecodeFrame_ShiftJISWithPreambleAndFooter(t *testing.T) {
	content := "ご利用明細\n" +
		"日付,店名,金額\n" +
		"2024/01/05,コンビニ,500\n" +
		"2024/01/06,書店,1200\n" +
		"合計,,1700\n" +
		"以上\n"

	rows, err := DecodeFrame[sampleRow](bytes.NewReader(sjis(t, content)), "b.csv",
		FrameConfig{Encoding: EncodingCP932, HeaderRowsToSkip: 1, FooterRowsToSkip: 2}, []string{"日付", "店名", "金額"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "書店", rows[1].Shop)
}

func TestDecodeFrame_FooterLargerThanBody(t *testing.T) {
	content := "日付,店名,金額\n2024/01/05,コンビニ,500\n"
	rows, err := DecodeFrame[sampleRow](strings.NewReader(content), "c.csv",
		FrameConfig{FooterRowsToSkip: 3}, []string{"日付"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeFrame_ColumnOverride(t *testing.T) {
	content := "利用明細\nご利用日,ご利用店,ご利用額,支払区分\n山田 太郎 様,,,\n2024/02/01,ローソン,300,1回\n2024/02/02,マクドナルド,680,1回\n合計,,980,\n"

	rows, err := DecodeFrame[sampleRow](strings.NewReader(content), "d.csv",
		FrameConfig{HeaderRowsToSkip: 1, FooterRowsToSkip: 1, Columns: []string{"日付", "店名", "金額"}},
		[]string{"日付", "店名", "金額"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "山田 太郎 様", rows[0].Date)
	assert.Equal(t, "マクドナルド", rows[2].Shop)
	assert.Equal(t, "680", rows[2].Amount)
}

func TestDecodeFrame_MissingColumn(t *testing.T) {
	content := "date,shop,amount\n2024/01/05,x,1\n"
	_, err := DecodeFrame[sampleRow](strings.NewReader(content), "e.csv",
		FrameConfig{}, []string{"日付", "店名", "金額"})

	var formatErr *parsererror.InvalidFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "e.csv", formatErr.FilePath)
	assert.Contains(t, formatErr.Msg, "日付")
}

func TestDecodeFrame_WrongEncoding(t *testing.T) {
	content := "日付,店名,金額\n2024/01/05,コンビニ,500\n"
	_, err := DecodeFrame[sampleRow](bytes.NewReader(sjis(t, content)), "f.csv",
		FrameConfig{Encoding: EncodingUTF8}, []string{"日付", "店名", "金額"})

	var formatErr *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestDecodeFrame_TruncatedPreamble(t *testing.T) {
	_, err := DecodeFrame[sampleRow](strings.NewReader("only one line\n"), "g.csv",
		FrameConfig{HeaderRowsToSkip: 9}, nil)

	var formatErr *parsererror.InvalidFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Contains(t, formatErr.Msg, "preamble")
}

func TestDecodeFrame_UnsupportedEncoding(t *testing.T) {
	_, err := DecodeFrame[sampleRow](strings.NewReader(""), "h.csv", FrameConfig{Encoding: "ebcdic"}, nil)
	var formatErr *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestFrameReader_ShortRowsPadded(t *testing.T) {
	fr, err := NewFrameReader(strings.NewReader("a,b,c\n1\n1,2,3,4\n"), "i.csv", FrameConfig{}, nil)
	require.NoError(t, err)

	all, err := fr.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, all[0])
	assert.Equal(t, []string{"1", "", ""}, all[1])
	assert.Equal(t, []string{"1", "2", "3"}, all[2])

	_, err = fr.Read()
	assert.ErrorIs(t, err, io.EOF)
}
