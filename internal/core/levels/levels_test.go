package levels

import (
	"encoding/json"
	"testing"

	"queststat/internal/core/rulepack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headers(hs ...string) [][]string {
	m := make([][]string, len(hs))
	for i, h := range hs {
		m[i] = []string{h, `<td class="dataCell">x</td>`}
	}
	return m
}

func TestParse_EncodedTransferLevel(t *testing.T) {
	raw := "8: &#x434;&#x43E;&#x457;&#x437;&#x434; &#x434;&#x43E; &#x43A;&#x456;&#x43D;&#x43E;&#x43F;&#x430;&#x43B;&#x430;&#x446;&#x443;"
	got := Parse([][]string{{raw}})
	require.Len(t, got, 1)
	assert.Equal(t, Level{Level: Num(8), Name: "доїзд до кінопалацу", Position: 0, Type: 3, Removed: false}, got[0])
}

func TestParse_Catalog(t *testing.T) {
	got := Parse(headers(
		"Итоговое время",
		"1: Бриф",
		"2: Логіка",
		"3: пошук-логіка",
		`4: Чорновола 12А<br><span class="dismissed">Уровень снят</span>`,
		`5: добіг<span>(<a href="/UserDetails.aspx?uid=9">kolya</a>)</span>`,
		"6: ракети 1",
	))
	require.Len(t, got, 7)

	want := []Level{
		{Level: Num(1), Name: "Бриф", Position: 0, Type: 5},
		{Level: Num(2), Name: "Логіка", Position: 1, Type: 2},
		{Level: Num(3), Name: "пошук-логіка", Position: 2, Type: 1},
		{Level: Num(4), Name: "Чорновола 12А", Position: 3, Type: 0, Removed: true},
		{Level: Num(5), Name: "добіг", Position: 4, Type: 7},
		{Level: Num(6), Name: "ракети 1", Position: 5, Type: 10},
		{Level: Text("Итоговое время"), Name: "Итоговое время", Position: 6, Type: 0},
	}
	assert.Equal(t, want, got)
}

func TestParse_PositionsDenseSingleFinish(t *testing.T) {
	matrices := [][][]string{
		headers("1: a", "2: b", "Финиш"),
		headers("Финиш", "1: a", "2: b"),
		headers("1: a", "Финиш", "2: b", "3: c"),
		headers("1: a", "Финиш", "Бонусы", "2: b"),
	}
	for _, m := range matrices {
		got := Parse(m)
		require.Len(t, got, len(m))
		for i, l := range got {
			assert.Equal(t, i, l.Position)
		}
		last := got[len(got)-1]
		assert.Equal(t, "Финиш", last.Level.String())
		assert.Equal(t, 0, last.Type)
	}
}

func TestParse_SecondNonNumericStaysInPlace(t *testing.T) {
	got := Parse(headers("1: a", "Финиш", "Бонусы: ралі", "2: b"))
	require.Len(t, got, 4, "extra non-numeric column is kept, not dropped")
	labels := []string{got[0].Level.String(), got[1].Level.String(), got[2].Level.String(), got[3].Level.String()}
	assert.Equal(t, []string{"1", "Бонусы", "2", "Финиш"}, labels)
	assert.Equal(t, 8, got[1].Type, "extra non-numeric column is an ordinary level")
}

func TestParse_PlaceholderOption(t *testing.T) {
	p := NewParser(rulepack.Default(), Options{FinishPlaceholder: "Total"})
	got := p.Parse(headers("1: a", ""))
	assert.Equal(t, "Total", got[1].Name)
	assert.Empty(t, Parse(nil))
}

func TestParse_Idempotent(t *testing.T) {
	m := headers("1: Бриф", "Итоговое время", "2: Логіка")
	assert.Equal(t, Parse(m), Parse(m))
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		in      string
		numeric bool
		want    string
	}{
		{"8", true, "8"},
		{" 12 ", true, "12"},
		{"7a", true, "7"},
		{"-3", true, "-3"},
		{"Итог", false, "Итог"},
		{"", false, ""},
		{"+", false, "+"},
	}
	for _, c := range cases {
		l := parseLabel(c.in)
		assert.Equal(t, c.numeric, l.IsNumeric(), c.in)
		assert.Equal(t, c.want, l.String(), c.in)
	}
}

func TestLabelJSON(t *testing.T) {
	b, err := json.Marshal([]Level{{Level: Num(3), Name: "x"}, {Level: Text("Итог"), Name: "y", Position: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"level":3,"name":"x","position":0,"type":0,"removed":false},`+
		`{"level":"Итог","name":"y","position":1,"type":0,"removed":false}]`, string(b))

	var back []Level
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Num(3), back[0].Level)
	assert.Equal(t, Text("Итог"), back[1].Level)

	var l Label
	require.Error(t, json.Unmarshal([]byte(`true`), &l))
}

func TestMergeTypes(t *testing.T) {
	existing := []Level{{Level: Num(1), Type: 4}, {Level: Num(2), Type: 0}}
	fresh := []Level{{Level: Num(1), Type: 1}, {Level: Num(2), Type: 2}, {Level: Text("Итог"), Type: 0}}
	got := MergeTypes(existing, fresh)
	assert.Equal(t, []int{4, 0, 0}, []int{got[0].Type, got[1].Type, got[2].Type})
	assert.Equal(t, 1, fresh[0].Type, "fresh slice untouched")
}
