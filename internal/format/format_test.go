package format

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

func apply(t *testing.T, f core.Formatter, v any) any {
	t.Helper()
	out, err := f(v, core.NewObject())
	require.NoError(t, err)
	return out
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		dec    int
		in     any
		want   string
	}{
		{"float", "$", 2, 1234.56, "$1,234.56"},
		{"json number", "$", 2, json.Number("1000"), "$1,000.00"},
		{"string with symbol", "€", 2, "$2,500.5", "€2,500.50"},
		{"no decimals", "₦", 0, 999, "₦999"},
		{"accounting negative", "$", 2, "(12.5)", "$-12.50"},
		{"nil is zero", "$", 2, nil, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, Currency(tt.symbol, tt.dec), tt.in))
		})
	}
}

func TestCurrency_NotNumeric(t *testing.T) {
	_, err := Currency("$", 2)("abc", core.NewObject())
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "45.68%", apply(t, Percentage(2), 45.678))
	assert.Equal(t, "7%", apply(t, Percentage(0), json.Number("7")))
}

func TestFileSize(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{json.Number("1073741824"), "1 GB"},
		{-5, "0 B"},
		{float64(1 << 50), "1024 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apply(t, FileSize(), tt.in), "FileSize(%v)", tt.in)
	}
}

func TestDate(t *testing.T) {
	assert.Equal(t, "Mar 05, 2024", apply(t, Date(""), "2024-03-05"))
	assert.Equal(t, "05/03/2024", apply(t, Date("02/01/2006"), "2024-03-05T10:00:00Z"))
	assert.Equal(t, "N/A", apply(t, Date(""), nil))
	assert.Equal(t, "N/A", apply(t, Date(""), ""))

	_, err := Date("")("not a date", core.NewObject())
	assert.ErrorIs(t, err, ErrNotDate)
}

func TestDateTime(t *testing.T) {
	assert.Equal(t, "Mar 05, 2024 2:30 PM", apply(t, DateTime(""), "2024-03-05 14:30:00"))

	ts := time.Date(2023, time.December, 1, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "Dec 01, 2023 9:05 AM", apply(t, DateTime(""), ts))
}

func TestBoolean(t *testing.T) {
	yesNo := Boolean("", "")
	active := Boolean("Active", "Inactive")

	assert.Equal(t, "Yes", apply(t, yesNo, true))
	assert.Equal(t, "No", apply(t, yesNo, false))
	assert.Equal(t, "No", apply(t, yesNo, nil))
	assert.Equal(t, "No", apply(t, yesNo, json.Number("0")))
	assert.Equal(t, "Yes", apply(t, yesNo, json.Number("2")))
	assert.Equal(t, "No", apply(t, yesNo, "no"))
	assert.Equal(t, "Active", apply(t, active, "yes"))
	assert.Equal(t, "Inactive", apply(t, active, ""))
}

func TestCasing(t *testing.T) {
	assert.Equal(t, "HELLO WORLD", apply(t, Uppercase(), "hello world"))
	assert.Equal(t, "hello world", apply(t, Lowercase(), "HELLO World"))
	assert.Equal(t, "Hello World", apply(t, TitleCase(), "hELLO wORLD"))
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", apply(t, Phone(""), "5551234567"))
	assert.Equal(t, "+1 (555) 123-4567", apply(t, Phone("+1 "), json.Number("5551234567")))
	assert.Equal(t, "12345", apply(t, Phone(""), "12345"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "This is a ...", apply(t, Truncate(10, "..."), "This is a long text"))
	assert.Equal(t, "short", apply(t, Truncate(10, "..."), "short"))
	assert.Equal(t, "héllo…", apply(t, Truncate(5, "…"), "héllo world"))
}

func TestJSON(t *testing.T) {
	v, err := core.Decode(`{"b":1,"a":["<x>"]}`)
	require.NoError(t, err)

	assert.Equal(t, `{"b":1,"a":["<x>"]}`, apply(t, JSON(false), v))
	assert.Equal(t, "{\n    \"b\": 1,\n    \"a\": [\n        \"<x>\"\n    ]\n}", apply(t, JSON(true), v))
}

func TestEnumLabel(t *testing.T) {
	f := EnumLabel(map[string]string{"pending": "Awaiting Review"})

	assert.Equal(t, "Awaiting Review", apply(t, f, "pending"))
	assert.Equal(t, "Unknown Status", apply(t, f, "unknown_status"))
	assert.Equal(t, "API Key", apply(t, f, "API_key"))
}

func TestHTMLFormatters(t *testing.T) {
	ctx := context.Background()
	render := func(v any) any {
		out, err := Render(ctx, v)
		require.NoError(t, err)
		return out
	}

	colors := map[string]string{"active": "green"}
	assert.Equal(t, `<span class="badge badge-green">active</span>`, render(apply(t, Badge(colors), "active")))
	assert.Equal(t, `<span class="badge badge-gray">&lt;b&gt;</span>`, render(apply(t, Badge(colors), "<b>")))

	assert.Equal(t,
		`<a href="https://example.com/a?b=1&amp;c=2" target="_blank" rel="noopener noreferrer">View</a>`,
		render(apply(t, URL(""), "https://example.com/a?b=1&c=2")))
	assert.Contains(t, render(apply(t, URL("Open"), "javascript:alert(1)")), "about:invalid")

	assert.Equal(t, `<a href="mailto:a@b.co">a@b.co</a>`, render(apply(t, Email(), "a@b.co")))
}

func TestHTMLFormatters_EscapeAttributes(t *testing.T) {
	ctx := context.Background()
	render := func(v any) string {
		out, err := Render(ctx, v)
		require.NoError(t, err)
		return out.(string)
	}

	colors := map[string]string{"x": `red" onclick="alert(1)`}
	got := render(apply(t, Badge(colors), "x"))
	assert.Equal(t, `<span class="badge badge-red&#34; onclick=&#34;alert(1)">x</span>`, got)

	got = render(apply(t, URL(`"><script>`), `https://example.com/"onmouseover="x`))
	assert.NotContains(t, got, `"onmouseover`)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, `&#34;&gt;&lt;script&gt;</a>`)
}

func TestRenderObject(t *testing.T) {
	values := core.NewObject()
	values.Set("Status", badge("ok", "green"))
	values.Set("Count", json.Number("3"))

	out, err := RenderObject(context.Background(), values)
	require.NoError(t, err)

	assert.Equal(t, []string{"Status", "Count"}, out.Keys())
	status, _ := out.Get("Status")
	assert.Equal(t, `<span class="badge badge-green">ok</span>`, status)
}

func TestFromSpec(t *testing.T) {
	dollars := "$"
	f, err := FromSpec(Spec{Type: "currency", Symbol: &dollars})
	require.NoError(t, err)
	assert.Equal(t, "$1,000.00", apply(t, f, 1000))

	f, err = FromSpec(Spec{Type: "file_size"})
	require.NoError(t, err)
	assert.Equal(t, "1 KB", apply(t, f, 1024))

	f, err = FromSpec(Spec{Type: "enumLabel", Labels: map[string]string{"a": "Alpha"}})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", apply(t, f, "a"))

	_, err = FromSpec(Spec{Type: "money"})
	assert.ErrorIs(t, err, ErrUnknownFormatter)
}

func TestFromSpecs(t *testing.T) {
	got, err := FromSpecs(map[string]Spec{
		"amount": {Type: "percentage"},
		"status": {Type: "badge"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = FromSpecs(map[string]Spec{"a": {Type: "x"}, "b": {Type: "y"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `formatter for "a"`)
	assert.Contains(t, err.Error(), `formatter for "b"`)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 16)
	assert.Contains(t, names, "currency")
	assert.IsIncreasing(t, names)
}

func TestFormatterWithTransform(t *testing.T) {
	opts, err := core.NewBuilder().Formatter("amount", Currency("$", 2)).Build()
	require.NoError(t, err)

	records, err := core.Transform(context.Background(), `{"amount":1000}`, opts)
	require.NoError(t, err)
	require.Len(t, records, 1)

	v, ok := records[0].Values.Get("Amount")
	require.True(t, ok)
	assert.Equal(t, "$1,000.00", v)
}
