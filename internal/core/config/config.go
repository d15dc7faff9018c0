package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AuditCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
}

type TemplateCfg struct {
	Name         string
	Placeholders []string
}

type Config struct {
	Addr               string
	LogLevel           string
	MapServerURL       string
	Project            string
	DefaultTemplate    string
	Templates          []TemplateCfg
	PrintLayers        []string
	PrintStyles        map[string]string
	PrintInfoTable     string
	DatabaseURL        string
	DefaultDPI         string
	DefaultSRS         string
	PrintTimeout       time.Duration
	PrintMaxConcurrent int
	MinDocumentBytes   int
	CapCacheDriver     string
	CapCacheTTL        time.Duration
	RedisAddr          string
	Audit              AuditCfg
}

func FromEnv() Config {
	return Config{
		Addr:               getenv("ADDR", ":5020"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		MapServerURL:       getenv("QGIS_SERVER_URL", "http://localhost:8001/ows/"),
		Project:            getenv("LANDREG_PROJECT", "grundbuch"),
		DefaultTemplate:    getenv("DEFAULT_LANDREG_LAYOUT", "A4-Hoch"),
		Templates:          parseTemplates(getenv("LANDREG_TEMPLATES", "A4-Hoch=surveyor+printdate")),
		PrintLayers:        splitList(getenv("LANDREG_PRINT_LAYERS", "Grundstuecke")),
		PrintStyles:        parseStringMap(getenv("LANDREG_PRINT_STYLES", "")),
		PrintInfoTable:     getenv("LANDREG_PRINTINFO_TABLE", "agi_nfgeometer_pub.print_info"),
		DatabaseURL:        getenv("DATABASE_URL", "postgres://localhost:5432/geodb"),
		DefaultDPI:         getenv("DEFAULT_DPI", "300"),
		DefaultSRS:         getenv("DEFAULT_SRS", "EPSG:2056"),
		PrintTimeout:       getduration("PRINT_TIMEOUT", 120*time.Second),
		PrintMaxConcurrent: getint("PRINT_MAX_CONCURRENT", 4),
		MinDocumentBytes:   getint("MIN_DOCUMENT_BYTES", 1024),
		CapCacheDriver:     getenv("CAPCACHE_DRIVER", "memory"),
		CapCacheTTL:        getduration("CAPCACHE_TTL", 5*time.Minute),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		Audit: AuditCfg{
			Enabled: getbool("AUDIT_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "landreg-extracts"),
			Queue:   getint("AUDIT_QUEUE", 1024),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitList parses "parcels,buildings,labels" preserving order.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseStringMap parses "layer=style,other=style2" into a map.
func parseStringMap(s string) map[string]string {
	out := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// parseTemplates parses "A4-Hoch=surveyor+printdate,A3-Quer=surveyor+printdate"
// into template declarations, preserving placeholder order.
func parseTemplates(s string) []TemplateCfg {
	var out []TemplateCfg
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		t := TemplateCfg{Name: name}
		if len(kv) == 2 {
			for _, ph := range strings.Split(kv[1], "+") {
				ph = strings.TrimSpace(ph)
				if ph != "" {
					t.Placeholders = append(t.Placeholders, ph)
				}
			}
		}
		out = append(out, t)
	}
	return out
}
