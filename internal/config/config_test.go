package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"sprint-kpi/internal/rollup"

	"github.com/joho/godotenv"
)

func TestParseBoardGroups(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []rollup.Group
		wantErr bool
	}{
		{
			name: "two groups",
			in:   "SCO=4133,4132; MCO = 2796 ,2526;",
			want: []rollup.Group{
				{Name: "SCO", Boards: []string{"4133", "4132"}},
				{Name: "MCO", Boards: []string{"2796", "2526"}},
			},
		},
		{name: "empty", in: "", want: nil},
		{name: "missing equals", in: "SCO", wantErr: true},
		{name: "no boards", in: "SCO=", wantErr: true},
		{name: "non numeric", in: "SCO=abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoardGroups(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoardGroups() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBoardGroups() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseKeyPrefixes(t *testing.T) {
	got, err := ParseKeyPrefixes("6347=BF-; 6390 = BF- ")
	if err != nil {
		t.Fatalf("ParseKeyPrefixes() error = %v", err)
	}
	if want := map[string]string{"6347": "BF-", "6390": "BF-"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ParseKeyPrefixes() = %v, want %v", got, want)
	}
	if _, err := ParseKeyPrefixes("6347="); err == nil {
		t.Error("expected an error for an empty prefix")
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" 4133, ,SCO,"); !reflect.DeepEqual(got, []string{"4133", "SCO"}) {
		t.Errorf("SplitList() = %v", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOGS_FOLDER", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := cfg.Report
	if r.DisplaySprintCount != 6 || r.RatingWindow != 4 {
		t.Errorf("window settings = %d/%d, want 6/4", r.DisplaySprintCount, r.RatingWindow)
	}
	if !r.CycleTimeStart.Equal(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CycleTimeStart = %v", r.CycleTimeStart)
	}
	if len(r.Groups) != 4 || r.Groups[3].Name != "ACOSS" || len(r.Groups[3].Boards) != 9 {
		t.Errorf("Groups = %v", r.Groups)
	}
	if r.KeyPrefixes["6390"] != "BF-" {
		t.Errorf("KeyPrefixes = %v", r.KeyPrefixes)
	}
	for _, label := range []string{"2025_PI3_committed", "BF_2025_PI12_COMMITED"} {
		if !r.PILabel.MatchString(label) {
			t.Errorf("PILabel should match %q", label)
		}
	}
	if r.PILabel.MatchString("2025_PI3_planned") {
		t.Error("PILabel should not match a planned label")
	}
	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Jira.PointsField != "customfield_10002" || cfg.Jira.AuthMode != "auto" {
		t.Errorf("Jira = %+v", cfg.Jira)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOGS_FOLDER", t.TempDir())
	t.Setenv("JIRA_DOMAIN", "https://acme.atlassian.net/")
	t.Setenv("JIRA_AUTH_MODE", "PAT")
	t.Setenv("JIRA_REQUEST_DELAY_MS", "250")
	t.Setenv("DEFAULT_BOARDS", "SCO,4894")
	t.Setenv("DISPLAY_SPRINT_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jira.Domain != "acme.atlassian.net" {
		t.Errorf("Domain = %q", cfg.Jira.Domain)
	}
	if cfg.Jira.AuthMode != "pat" || cfg.Jira.RequestDelay != 250*time.Millisecond {
		t.Errorf("Jira = %+v", cfg.Jira)
	}
	if !reflect.DeepEqual(cfg.Report.DefaultBoards, []string{"SCO", "4894"}) || cfg.Report.DisplaySprintCount != 3 {
		t.Errorf("Report = %+v", cfg.Report)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"JIRA_AUTH_MODE", "kerberos"},
		{"BOARD_GROUPS", "SCO"},
		{"BOARD_KEY_PREFIXES", "6347"},
		{"DISPLAY_SPRINT_COUNT", "six"},
		{"DISPLAY_SPRINT_COUNT", "0"},
		{"CYCLE_TIME_START", "09/06/2025"},
		{"PI_LABEL_PATTERN", "("},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("LOGS_FOLDER", t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestGodotenvGroupQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "BOARD_GROUPS='SCO=4133,4132;Butterfly=6347'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("godotenv.Read() error = %v", err)
	}
	groups, err := ParseBoardGroups(env["BOARD_GROUPS"])
	if err != nil {
		t.Fatalf("ParseBoardGroups() error = %v", err)
	}
	if len(groups) != 2 || groups[1].Name != "Butterfly" {
		t.Errorf("groups = %v", groups)
	}
}
