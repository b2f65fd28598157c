package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "mcscand.toml")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `db_url = "postgres://localhost/mcscan"`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 256 {
		t.Errorf("WorkerCount = %d, want default 256", cfg.WorkerCount)
	}
	if cfg.TimeoutMS != 3000 {
		t.Errorf("TimeoutMS = %d, want default 3000", cfg.TimeoutMS)
	}
	if cfg.BlacklistFile != "blacklist.txt" {
		t.Errorf("BlacklistFile = %q, want default", cfg.BlacklistFile)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	p := writeConfig(t, `
db_url = "postgres://localhost/mcscan"
worker_count = 512
timeout_ms = 5000
enable_isp_scan = true
isp_scan_subnet = 24
extended_port_scan = true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 512 {
		t.Errorf("WorkerCount = %d, want 512", cfg.WorkerCount)
	}
	if !cfg.EnableISPScan || cfg.ISPScanSubnet != 24 {
		t.Errorf("ISP scan config not applied: %+v", cfg)
	}
	if !cfg.ExtendedPortScan {
		t.Error("ExtendedPortScan not applied")
	}
}

func TestLoadRequiresDBURL(t *testing.T) {
	p := writeConfig(t, `worker_count = 10`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for missing db_url")
	}
}

func TestLoadRequiresISPScanSubnetWhenEnabled(t *testing.T) {
	p := writeConfig(t, `
db_url = "postgres://localhost/mcscan"
enable_isp_scan = true
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for enable_isp_scan without isp_scan_subnet")
	}
}

func TestLoadWorkerCountZeroDisablesScanning(t *testing.T) {
	p := writeConfig(t, `
db_url = "postgres://localhost/mcscan"
worker_count = 0
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 0 {
		t.Errorf("WorkerCount = %d, want 0", cfg.WorkerCount)
	}
}

func TestLoadWorkerRecheckZeroDisablesRescanner(t *testing.T) {
	p := writeConfig(t, `
db_url = "postgres://localhost/mcscan"
worker_recheck = 0
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerRecheckCount != 0 {
		t.Errorf("WorkerRecheckCount = %d, want 0", cfg.WorkerRecheckCount)
	}
}
