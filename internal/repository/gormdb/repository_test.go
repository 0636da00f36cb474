package gormdb

import "testing"

func TestDialectorFor(t *testing.T) {
	cases := []struct {
		driver  string
		dsn     string
		want    string
		wantErr bool
	}{
		{DriverMySQL, "user:pass@tcp(localhost:3306)/prod?parseTime=true", "mysql", false},
		{DriverPostgres, "host=localhost user=prod dbname=prod sslmode=disable", "postgres", false},
		{"sqlite", "file.db", "", true},
		{DriverMySQL, "", "", true},
	}
	for _, tc := range cases {
		d, err := dialectorFor(tc.driver, tc.dsn)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.driver)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.driver, err)
		}
		if d.Name() != tc.want {
			t.Fatalf("%s: expected dialector %s, got %s", tc.driver, tc.want, d.Name())
		}
	}
}
