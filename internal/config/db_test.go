package config

import "testing"

var dbEnvKeys = []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME", "DATABASE_DSN"}

func TestGetDatabaseDSN(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "discrete variables",
			env: map[string]string{
				"DB_USER": "fire", "DB_PASSWORD": "s3cret", "DB_HOST": "db.internal",
				"DB_PORT": "3307", "DB_NAME": "wildfire_prod",
				"DATABASE_DSN": "ignored:ignored@tcp(x:1)/x",
			},
			want: "fire:s3cret@tcp(db.internal:3307)/wildfire_prod?parseTime=true",
		},
		{
			name: "DATABASE_DSN",
			env:  map[string]string{"DATABASE_DSN": "ops:pw@tcp(mysql:3306)/alerts?parseTime=true"},
			want: "ops:pw@tcp(mysql:3306)/alerts?parseTime=true",
		},
		{
			name: "incomplete discrete set falls through",
			env:  map[string]string{"DB_USER": "fire", "DB_PASSWORD": "s3cret"},
			want: "wildfire:wildfire@tcp(localhost:3306)/wildfire?parseTime=true",
		},
		{
			name: "default",
			want: "wildfire:wildfire@tcp(localhost:3306)/wildfire?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range dbEnvKeys {
				t.Setenv(k, tt.env[k])
			}
			if got := GetDatabaseDSN(); got != tt.want {
				t.Errorf("GetDatabaseDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
