package plan_repo

import (
	"testing"

	"planbook/internal/domain/access"
)

func buildWithScope(t *testing.T, scope access.Scope) (string, []any) {
	t.Helper()
	q := builder().Select("id").From(planTable)
	if pred := scopePredicate(scope); pred != nil {
		q = q.Where(pred)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	return sql, args
}

func TestScopePredicate(t *testing.T) {
	tests := []struct {
		name     string
		scope    access.Scope
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "unrestricted adds no predicate",
			scope:    access.Scope{Unrestricted: true},
			wantSQL:  "SELECT id FROM sales_plans",
			wantArgs: 0,
		},
		{
			name:     "empty scope matches nothing",
			scope:    access.Scope{},
			wantSQL:  "SELECT id FROM sales_plans WHERE FALSE",
			wantArgs: 0,
		},
		{
			name:     "region only",
			scope:    access.Scope{Region: "north"},
			wantSQL:  "SELECT id FROM sales_plans WHERE (region = $1)",
			wantArgs: 1,
		},
		{
			name:     "grants only",
			scope:    access.Scope{PlanIDs: []int64{1, 2}},
			wantSQL:  "SELECT id FROM sales_plans WHERE (id IN ($1,$2))",
			wantArgs: 2,
		},
		{
			name:     "all channels are OR-ed",
			scope:    access.Scope{Region: "north", Department: "sales", PlanIDs: []int64{7}},
			wantSQL:  "SELECT id FROM sales_plans WHERE (region = $1 OR department = $2 OR id IN ($3))",
			wantArgs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildWithScope(t, tt.scope)
			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("Args count mismatch\nwant: %d\ngot:  %d", tt.wantArgs, len(args))
			}
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "default", orderBy: "", want: "created_at DESC"},
		{name: "ascending", orderBy: "title", want: "title ASC"},
		{name: "descending", orderBy: "-start_date", want: "start_date DESC"},
		{name: "explicit plus", orderBy: "+status", want: "status ASC"},
		{name: "unknown column rejected", orderBy: "evil; DROP TABLE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrderBy(tt.orderBy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}
