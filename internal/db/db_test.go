package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"climate-server/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{
			name: "explicit DSN wins",
			cfg:  config.Config{Driver: config.DriverMattn, DSN: "file:x.db?cache=shared", Path: "ignored.db"},
			want: "file:x.db?cache=shared",
		},
		{
			name: "mattn plain path",
			cfg:  config.Config{Driver: config.DriverMattn, Path: "Resources/hawaii.sqlite"},
			want: "file:Resources/hawaii.sqlite?mode=ro&_busy_timeout=5000",
		},
		{
			name: "modernc plain path",
			cfg:  config.Config{Driver: config.DriverModernc, Path: "hawaii.sqlite"},
			want: "file:hawaii.sqlite?mode=ro&_pragma=busy_timeout(5000)",
		},
		{
			name: "file URI with query",
			cfg:  config.Config{Driver: config.DriverMattn, Path: "file:hawaii.sqlite?cache=shared"},
			want: "file:hawaii.sqlite?cache=shared&mode=ro&_busy_timeout=5000",
		},
		{
			name:    "fixture driver rejected",
			cfg:     config.Config{Driver: config.DriverFixture, Path: "hawaii.yaml"},
			wantErr: true,
		},
		{
			name:    "empty path rejected",
			cfg:     config.Config{Driver: config.DriverMattn},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("buildDSN() err = nil; want non-nil (dsn %q)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildDSN() err = %v; want nil", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN() = %q; want %q", got, tt.want)
			}
		})
	}
}

func seedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	w, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open writable db: %v", err)
	}
	defer func() { _ = w.Close() }()
	if _, err := w.Exec(`CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);
		INSERT INTO measurement (station, date, prcp, tobs) VALUES ('USC00519397', '2010-01-01', 0.08, 65.0);`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path
}

func TestOpen_ReadOnly(t *testing.T) {
	path := seedFile(t)

	for _, driverName := range []string{config.DriverMattn, config.DriverModernc} {
		for _, logSQL := range []bool{false, true} {
			name := driverName
			if logSQL {
				name += "/logged"
			}
			t.Run(name, func(t *testing.T) {
				conn, err := Open(config.Config{Driver: driverName, Path: path, MaxOpenConns: 2, MaxIdleConns: 1, LogSQL: logSQL})
				if err != nil {
					t.Fatalf("Open() err = %v; want nil", err)
				}
				defer func() { _ = Close(conn) }()

				var n int
				if err := conn.QueryRow(`SELECT COUNT(*) FROM measurement`).Scan(&n); err != nil {
					t.Fatalf("count: %v", err)
				}
				if n != 1 {
					t.Errorf("count = %d; want 1", n)
				}

				if _, err := conn.Exec(`DELETE FROM measurement`); err == nil {
					t.Error("DELETE on read-only handle err = nil; want non-nil")
				}
			})
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sqlite")
	if _, err := Open(config.Config{Driver: config.DriverMattn, Path: path}); err == nil {
		t.Fatal("Open() on missing file err = nil; want non-nil")
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil) = %v; want nil", err)
	}
}
