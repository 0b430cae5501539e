package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/rollup"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	defaultBoardGroups    = "SCO=4133,4132,4131;MCO=2796,2526,6346;Butterfly=6347,6390;ACOSS=2796,2526,6346,4133,4132,4131,6347,6390,4894"
	defaultKeyPrefixes    = "6347=BF-;6390=BF-"
	defaultPILabelPattern = `\b(?:BF_)?\d{4}_PI\d+_committ?ed\b`
	defaultCycleTimeStart = "2025-06-09"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira   jira.Config
	Report ReportConfig
	Server ServerConfig

	DataPath            string
	LogDir              string
	EnableMermaidCharts bool
}

// ReportConfig controls which sprints are loaded and how they are charted.
type ReportConfig struct {
	Groups []rollup.Group
	// KeyPrefixes restricts the issues of a board to keys with the given prefix.
	KeyPrefixes        map[string]string
	DisplaySprintCount int
	RatingWindow       int
	CycleTimeStart     time.Time
	PILabel            *regexp.Regexp
	DefaultBoards      []string
}

// ServerConfig holds the dashboard server settings.
type ServerConfig struct {
	ListenAddr  string
	RefreshCron string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Executable directory first, so an installed binary finds its own .env
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory; godotenv never overrides values that are already set
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}
	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	jcfg, err := jiraFromEnv()
	if err != nil {
		return nil, err
	}
	rcfg, err := reportFromEnv()
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Jira:   jcfg,
		Report: rcfg,
		Server: ServerConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
			RefreshCron: getEnv("REFRESH_CRON", ""),
		},
		DataPath:            dataPath,
		LogDir:              logDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
	}, nil
}

func jiraFromEnv() (jira.Config, error) {
	mode := jira.AuthMode(strings.ToLower(getEnv("JIRA_AUTH_MODE", string(jira.AuthAuto))))
	switch mode {
	case jira.AuthAuto, jira.AuthBasic, jira.AuthPAT, jira.AuthOAuth:
	default:
		return jira.Config{}, fmt.Errorf("JIRA_AUTH_MODE: unknown mode %q", mode)
	}

	delayMs, err := getEnvInt("JIRA_REQUEST_DELAY_MS", 0)
	if err != nil {
		return jira.Config{}, err
	}

	return jira.Config{
		Domain:   strings.TrimSuffix(strings.TrimPrefix(getEnv("JIRA_DOMAIN", ""), "https://"), "/"),
		APIBase:  strings.TrimSuffix(getEnv("JIRA_API_BASE", ""), "/"),
		AuthMode: mode,
		Email:    getEnv("JIRA_EMAIL", ""),
		APIToken: getEnv("JIRA_API_TOKEN", ""),
		PAT:      getEnv("JIRA_PAT", ""),
		OAuth: jira.OAuthConfig{
			ClientID:     getEnv("JIRA_OAUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("JIRA_OAUTH_CLIENT_SECRET", ""),
			AccessToken:  getEnv("JIRA_OAUTH_ACCESS_TOKEN", ""),
			RefreshToken: getEnv("JIRA_OAUTH_REFRESH_TOKEN", ""),
			CloudID:      getEnv("JIRA_CLOUD_ID", ""),
		},
		PointsField:  getEnv("JIRA_POINTS_FIELD", jira.DefaultPointsField),
		RequestDelay: time.Duration(delayMs) * time.Millisecond,
	}, nil
}

func reportFromEnv() (ReportConfig, error) {
	groups, err := ParseBoardGroups(getEnv("BOARD_GROUPS", defaultBoardGroups))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("BOARD_GROUPS: %w", err)
	}
	prefixes, err := ParseKeyPrefixes(getEnv("BOARD_KEY_PREFIXES", defaultKeyPrefixes))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("BOARD_KEY_PREFIXES: %w", err)
	}
	display, err := getEnvInt("DISPLAY_SPRINT_COUNT", 6)
	if err != nil {
		return ReportConfig{}, err
	}
	window, err := getEnvInt("RATING_WINDOW", 4)
	if err != nil {
		return ReportConfig{}, err
	}
	if display <= 0 || window < 0 {
		return ReportConfig{}, fmt.Errorf("DISPLAY_SPRINT_COUNT must be positive and RATING_WINDOW non-negative")
	}
	start, err := time.Parse(time.DateOnly, getEnv("CYCLE_TIME_START", defaultCycleTimeStart))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("CYCLE_TIME_START: %w", err)
	}
	re, err := regexp.Compile("(?i)" + getEnv("PI_LABEL_PATTERN", defaultPILabelPattern))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("PI_LABEL_PATTERN: %w", err)
	}

	return ReportConfig{
		Groups:             groups,
		KeyPrefixes:        prefixes,
		DisplaySprintCount: display,
		RatingWindow:       window,
		CycleTimeStart:     start,
		PILabel:            re,
		DefaultBoards:      SplitList(getEnv("DEFAULT_BOARDS", "")),
	}, nil
}

// ParseBoardGroups reads "NAME=id,id;NAME=id" into groups, keeping their order.
func ParseBoardGroups(s string) ([]rollup.Group, error) {
	var groups []rollup.Group
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, ids, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed group %q, want NAME=id,id", entry)
		}
		boards := SplitList(ids)
		if len(boards) == 0 {
			return nil, fmt.Errorf("group %q has no boards", name)
		}
		for _, b := range boards {
			if _, err := strconv.Atoi(b); err != nil {
				return nil, fmt.Errorf("group %q: board id %q is not numeric", name, b)
			}
		}
		groups = append(groups, rollup.Group{Name: name, Boards: boards})
	}
	return groups, nil
}

// ParseKeyPrefixes reads "id=PREFIX-;id=PREFIX-" into a board to prefix map.
func ParseKeyPrefixes(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		board, prefix, ok := strings.Cut(entry, "=")
		board, prefix = strings.TrimSpace(board), strings.TrimSpace(prefix)
		if !ok || board == "" || prefix == "" {
			return nil, fmt.Errorf("malformed prefix %q, want id=PREFIX-", entry)
		}
		out[board] = prefix
	}
	return out, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
