package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"eq string", Eq("type", "node"), false},
		{"eq empty array", Eq("pos", []any{}), false},
		{"nin list", Nin("type", "node", "way"), false},
		{"in list", In("type", "node"), false},
		{"exists", Exists("lanes", true), false},
		{"size", Size("lanes", 2), false},
		{"gt string", Gt("pos.0", "42.331429"), false},
		{"gt number", Gt("pos.0", 42.331429).AsNumber(), false},
		{"numeric with string", Gt("pos.0", "42").AsNumber(), true},
		{"gt bool", Gt("pos.0", true), true},
		{"exists non bool", Condition{Field: "a", Op: OpExists, Value: 1}, true},
		{"size non int", Condition{Field: "a", Op: OpSize, Value: "2"}, true},
		{"in non list", Condition{Field: "a", Op: OpIn, Value: "x"}, true},
		{"no field", Eq("", "x"), true},
		{"unknown op", Condition{Field: "a", Op: "$regex", Value: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOp_IsComparison(t *testing.T) {
	assert.True(t, OpGt.IsComparison())
	assert.True(t, OpLte.IsComparison())
	assert.False(t, OpEq.IsComparison())
	assert.False(t, OpSize.IsComparison())
}

func TestFilter_String(t *testing.T) {
	f := Filter{Eq("type", "way"), Exists("highway", true)}
	assert.Equal(t, `{"type": "way", "highway": {"$exists": true}}`, f.String())

	assert.Equal(t, "{}", Filter{}.String())

	numeric := Filter{Gt("pos.0", 42.5).AsNumber()}
	assert.Equal(t, `{"pos.0": {"$toDouble": {"$gt": 42.5}}}`, numeric.String())
}

func TestPipeline_Validate(t *testing.T) {
	valid := Pipeline{
		Match(Eq("type", "way"), Exists("highway", true)),
		Unwind("node_refs"),
		GroupBy(ByField("highway"), Count("total_node_refs")),
		SortBy(Desc("total_node_refs")),
		Project("type"),
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		p    Pipeline
	}{
		{"bad match", Pipeline{Match(Eq("", "x"))}},
		{"empty unwind", Pipeline{Unwind("")}},
		{"nil group", Pipeline{{Kind: StageGroup}}},
		{"id accumulator", Pipeline{GroupBy(ByLiteral("x"), Count("_id"))}},
		{"empty sort", Pipeline{SortBy()}},
		{"nil project", Pipeline{{Kind: StageProject}}},
		{"unknown stage", Pipeline{{Kind: StageKind(42)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.p.Validate(), ErrInvalidInput)
		})
	}
}

func TestStageKind_String(t *testing.T) {
	assert.Equal(t, "$match", StageMatch.String())
	assert.Equal(t, "$unwind", StageUnwind.String())
	assert.Equal(t, "$group", StageGroup.String())
	assert.Equal(t, "$sort", StageSort.String())
	assert.Equal(t, "$project", StageProject.String())
	assert.Equal(t, "unknown", StageKind(99).String())
}

func TestAccumulatorConstructors(t *testing.T) {
	assert.Equal(t, SumOperand{Const: 1}, Count("count").Sum)
	assert.Equal(t, SumOperand{Field: "n"}, SumField("total", "n").Sum)
	assert.Equal(t, SumOperand{SizeOf: "node_refs"}, SumSize("total", "node_refs").Sum)
}
