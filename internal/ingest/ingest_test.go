package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/query"
	"github.com/usestring/fieldscope-mcp/pkg/contenttype"
)

// --- helpers ---

func recordIDs(ds *Dataset) []string {
	out := make([]string, len(ds.Records))
	for i, r := range ds.Records {
		out[i] = r.ID
	}
	return out
}

func field(t *testing.T, r Record, key string) any {
	t.Helper()
	obj, ok := r.Value.(*flatten.Object)
	require.True(t, ok, "record %s is not an object", r.ID)
	v, ok := obj.Get(key)
	require.True(t, ok, "record %s has no %q", r.ID, key)
	return v
}

func keysOf(t *testing.T, r Record) []string {
	t.Helper()
	obj, ok := r.Value.(*flatten.Object)
	require.True(t, ok)
	var keys []string
	for p := obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// --- JSON ---

func TestParseJSON_IDRules(t *testing.T) {
	tests := []struct {
		name string
		data string
		ids  []string
		rule IDRule
	}{
		{"id field", `[{"id":"a","n":1},{"id":"b","n":2}]`, []string{"a", "b"}, IDRuleField},
		{"numeric id", `[{"id":10},{"id":11}]`, []string{"10", "11"}, IDRuleField},
		{"underscore id", `[{"_id":"x1"},{"_id":"x2"}]`, []string{"x1", "x2"}, IDRuleUnderscore},
		{"duplicate ids fall back", `[{"id":1},{"id":1}]`, []string{"0", "1"}, IDRuleIndex},
		{"missing id falls back", `[{"id":1},{"name":"n"}]`, []string{"0", "1"}, IDRuleIndex},
		{"null id falls back", `[{"id":null}]`, []string{"0"}, IDRuleIndex},
		{"object id falls back", `[{"id":{"k":1}}]`, []string{"0"}, IDRuleIndex},
		{"duplicate id uses _id", `[{"id":1,"_id":"a"},{"id":1,"_id":"b"}]`, []string{"a", "b"}, IDRuleUnderscore},
		{"primitives", `[1,"x",true]`, []string{"0", "1", "2"}, IDRuleIndex},
		{"empty array", `[]`, []string{}, IDRuleIndex},
		{"object root", `{"b":{"x":1},"a":2}`, []string{"b", "a"}, IDRuleKey},
		{"primitive root", `42`, []string{"0"}, IDRuleIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseJSON([]byte(tt.data), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.ids, recordIDs(ds))
			assert.Equal(t, tt.rule, ds.IDRule)
			assert.Equal(t, contenttype.JSON, ds.Format)
		})
	}
}

func TestParseJSON_WrapsNonObjects(t *testing.T) {
	ds, err := ParseJSON([]byte(`[1,"x",{"a":1},[2,3]]`), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)

	assert.Equal(t, float64(1), field(t, ds.Records[0], "value"))
	assert.Equal(t, "x", field(t, ds.Records[1], "value"))
	assert.Equal(t, float64(1), field(t, ds.Records[2], "a"))
	assert.Equal(t, []any{float64(2), float64(3)}, field(t, ds.Records[3], "value"))

	ds, err = ParseJSON([]byte(`{"a":2}`), Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(2), field(t, ds.Records[0], "value"))
}

func TestParseJSON_KeepsKeyOrder(t *testing.T) {
	ds, err := ParseJSON([]byte(`[{"zeta":1,"alpha":2,"mid":3}]`), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keysOf(t, ds.Records[0]))
}

func TestParseJSON_DataPath(t *testing.T) {
	data := []byte(`{"meta":{"n":2},"data":{"items":[{"id":"a"},{"id":"b"}],"groups":[{"rows":[{"id":"c"}]}]}}`)

	ds, err := ParseJSON(data, Options{DataPath: "data.items"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, recordIDs(ds))

	ds, err = ParseJSON(data, Options{DataPath: "data.groups[0].rows"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, recordIDs(ds))

	_, err = ParseJSON(data, Options{DataPath: "data.missing"})
	require.ErrorIs(t, err, ErrPathNotFound)
	assert.True(t, IsInputError(err))
}

func TestParseJSON_Filter(t *testing.T) {
	data := []byte(`{"items":[{"id":"a","n":1},{"id":"b","n":2},{"id":"c","n":3}]}`)

	ds, err := ParseJSON(data, Options{Filter: `[.items[] | select(.n > 1)]`})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, recordIDs(ds))

	// Several outputs become the records.
	ds, err = ParseJSON(data, Options{Filter: `.items[] | select(.n < 3)`})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, recordIDs(ds))

	// DataPath runs first.
	ds, err = ParseJSON(data, Options{DataPath: "items", Filter: `map({id, double: (.n * 2)})`})
	require.NoError(t, err)
	assert.Equal(t, float64(6), field(t, ds.Records[2], "double"))
}

func TestParseJSON_FilterErrors(t *testing.T) {
	data := []byte(`{"items":null}`)

	_, err := ParseJSON(data, Options{Filter: `.items[`})
	require.ErrorIs(t, err, query.ErrInvalidExpression)
	assert.True(t, IsInputError(err))

	_, err = ParseJSON(data, Options{Filter: `.items[]`})
	require.ErrorIs(t, err, ErrFilter)
	assert.Contains(t, err.Error(), "cannot iterate over")
}

func TestValidateFilter(t *testing.T) {
	assert.NoError(t, ValidateFilter(""))
	assert.NoError(t, ValidateFilter("  "))
	assert.NoError(t, ValidateFilter(".items | map(select(.active))"))
	assert.ErrorIs(t, ValidateFilter(".items["), query.ErrInvalidExpression)
	assert.ErrorIs(t, ValidateFilter("no_such_fn(1)"), query.ErrInvalidExpression)
}

func TestParseJSON_Malformed(t *testing.T) {
	for _, data := range []string{`{"a":`, ``, `[1,]`, `{"a":1}{`} {
		_, err := ParseJSON([]byte(data), Options{})
		assert.ErrorIs(t, err, ErrMalformed, "input %q", data)
	}
}

func TestParseJSON_ByteOrderMark(t *testing.T) {
	ds, err := ParseJSON([]byte("\ufeff[{\"id\":\"a\"}]"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, recordIDs(ds))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a"}, splitPath("a"))
	assert.Equal(t, []string{"a", "b", "c"}, splitPath("a.b.c"))
	assert.Equal(t, []string{"a", "[2]", "c"}, splitPath("a[2].c"))
	assert.Equal(t, []string{"[0]", "[1]"}, splitPath("[0][1]"))
}

// --- CSV ---

func TestParseCSV_HeaderDetected(t *testing.T) {
	ds, err := ParseCSV([]byte("name,age\nAnn,30\nBob,25\n"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, contenttype.CSV, ds.Format)
	assert.Equal(t, []string{"0", "1"}, recordIDs(ds))
	assert.Equal(t, IDRuleIndex, ds.IDRule)

	assert.Equal(t, []string{"name", "age"}, keysOf(t, ds.Records[0]))
	assert.Equal(t, "Ann", field(t, ds.Records[0], "name"))
	assert.Equal(t, float64(30), field(t, ds.Records[0], "age"))
}

func TestParseCSV_NoHeader(t *testing.T) {
	ds, err := ParseCSV([]byte("1,2\n3,4\n"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, []string{"Column 1", "Column 2"}, keysOf(t, ds.Records[0]))
	assert.Equal(t, float64(3), field(t, ds.Records[1], "Column 1"))
}

func TestParseCSV_SingleRowIsData(t *testing.T) {
	ds, err := ParseCSV([]byte("alpha,beta"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "alpha", field(t, ds.Records[0], "Column 1"))
}

func TestParseCSV_BlankHeaderDropped(t *testing.T) {
	ds, err := ParseCSV([]byte(",name,n\n1,Ann,2\n"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, []string{"name", "n"}, keysOf(t, ds.Records[0]))
}

func TestParseCSV_Typing(t *testing.T) {
	ds, err := ParseCSV([]byte("label,flag,price,code,note\nx,true,-1.5e2,0x1F,\n"), Options{})
	require.NoError(t, err)
	r := ds.Records[0]
	assert.Equal(t, true, field(t, r, "flag"))
	assert.Equal(t, float64(-150), field(t, r, "price"))
	assert.Equal(t, "0x1F", field(t, r, "code"), "hex stays text")
	assert.Equal(t, "", field(t, r, "note"))
}

func TestParseCSV_RaggedRows(t *testing.T) {
	ds, err := ParseCSV([]byte("a,b,c\n1,2\n"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, []string{"a", "b"}, keysOf(t, ds.Records[0]))
}

func TestParseCSV_IDColumn(t *testing.T) {
	ds, err := ParseCSV([]byte("id,name\n10,Ann\n11,Bob\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, recordIDs(ds))
	assert.Equal(t, IDRuleField, ds.IDRule)
}

func TestParseCSV_SkipsEmptyLines(t *testing.T) {
	ds, err := ParseCSV([]byte("name,age\n\nAnn,30\n\n\nBob,25\n"), Options{})
	require.NoError(t, err)
	assert.Len(t, ds.Records, 2)
}

func TestParseCSV_Empty(t *testing.T) {
	for _, data := range []string{"", "\n\n"} {
		_, err := ParseCSV([]byte(data), Options{})
		assert.ErrorIs(t, err, ErrEmptyCSV)
	}
}

func TestParseCSV_Malformed(t *testing.T) {
	_, err := ParseCSV([]byte("a,b\"c\n1,2\n"), Options{})
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "error parsing CSV file")
}

func TestParseCSV_Delimiter(t *testing.T) {
	ds, err := ParseCSV([]byte("name\tcity\nAnn\tOslo\n"), Options{Delimiter: '\t'})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", field(t, ds.Records[0], "city"))
}

func TestParseCSV_Columns(t *testing.T) {
	body := "id,,name,score,active,status\n" +
		"1,x,Ann,3.5,true,open\n" +
		"2,,Bob,,false,closed\n" +
		"3,y,Cid,4,true,open\n" +
		"4,,Dee,1,false,open\n" +
		"5,,Eve,2,true,closed\n"
	ds, err := ParseCSV([]byte(body), Options{})
	require.NoError(t, err)
	require.NotNil(t, ds.CSV)

	shape := ds.CSV
	assert.True(t, shape.HasHeaders)
	assert.Equal(t, ",", shape.Delimiter)
	assert.Equal(t, 5, shape.Rows)
	require.Len(t, shape.Columns, 6)

	assert.Equal(t, "number", shape.Columns[0].Type)
	assert.Equal(t, []string{"1", "2", "3"}, shape.Columns[0].Examples)

	blank := shape.Columns[1]
	assert.True(t, blank.Dropped)
	assert.InDelta(t, 0.6, blank.EmptyFrequency, 0.001)

	assert.Equal(t, "string", shape.Columns[2].Type)
	assert.Empty(t, shape.Columns[2].Format)

	score := shape.Columns[3]
	assert.Equal(t, "number", score.Type)
	assert.InDelta(t, 0.2, score.EmptyFrequency, 0.001)

	assert.Equal(t, "boolean", shape.Columns[4].Type)

	status := shape.Columns[5]
	assert.Equal(t, "string", status.Type)
	assert.Equal(t, "enum", status.Format)
	assert.Equal(t, []string{"closed", "open"}, status.EnumValues)
}

func TestParseCSV_ColumnsWithoutHeader(t *testing.T) {
	ds, err := ParseCSV([]byte("1;a\n2;b\n3;\n"), Options{Delimiter: ';'})
	require.NoError(t, err)
	require.NotNil(t, ds.CSV)
	assert.False(t, ds.CSV.HasHeaders)
	assert.Equal(t, ";", ds.CSV.Delimiter)
	assert.Equal(t, 3, ds.CSV.Rows)
	assert.Equal(t, "Column 1", ds.CSV.Columns[0].Name)
	assert.Equal(t, "string", ds.CSV.Columns[1].Type)
	assert.InDelta(t, 1.0/3, ds.CSV.Columns[1].EmptyFrequency, 0.001)
}

func TestParseJSON_HasNoCSVShape(t *testing.T) {
	ds, err := ParseJSON([]byte(`[{"a":1}]`), Options{})
	require.NoError(t, err)
	assert.Nil(t, ds.CSV)
}

// --- Payload ---

func TestNewPayload_Format(t *testing.T) {
	p, err := NewPayload([]byte(`[1]`), "", "inline", "")
	require.NoError(t, err)
	assert.Equal(t, contenttype.JSON, p.Format)

	p, err = NewPayload([]byte("a,b\n1,2"), "", "inline", "")
	require.NoError(t, err)
	assert.Equal(t, contenttype.CSV, p.Format)

	p, err = NewPayload([]byte(`[1]`), "text/csv", "x", "JSON")
	require.NoError(t, err)
	assert.Equal(t, contenttype.JSON, p.Format, "explicit format wins")

	_, err = NewPayload([]byte("x"), "", "x", "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewPayload([]byte{0xff, 0xfe, 0x00}, "image/png", "x.png", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPayload_ParseTSV(t *testing.T) {
	p, err := NewPayload([]byte("name\tcity\nAnn\tOslo\n"), "", "people.tsv", "")
	require.NoError(t, err)

	ds, err := p.Parse(Options{})
	require.NoError(t, err)
	assert.Equal(t, "people.tsv", ds.Source)
	assert.Equal(t, "Oslo", field(t, ds.Records[0], "city"))
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse([]byte("x"), contenttype.Text, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.True(t, IsInputError(err))
}

// --- files ---

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"p1"}]`), 0o644))

	p, err := ReadFile(path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, contenttype.JSON, p.Format)
	assert.Equal(t, path, p.Source)

	_, err = ReadFile(path, "", 4)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ReadFile(filepath.Join(dir, "missing.json"), "", 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadFile(dir, "", 0)
	assert.Error(t, err)
}
