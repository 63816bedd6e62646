package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ScheduleConfig is the parsed shape of the scheduler TOML file: four cron
// triggers, each independently enabled.
type ScheduleConfig struct {
	Daily   DailyTrigger   `toml:"daily"`
	Weekly  WeeklyTrigger  `toml:"weekly"`
	Monthly MonthlyTrigger `toml:"monthly"`
	Yearly  YearlyTrigger  `toml:"yearly"`
}

// DailyTrigger fires run_daily(yesterday) at Hour:Minute every day.
type DailyTrigger struct {
	Enabled bool `toml:"enabled"`
	Hour    int  `toml:"hour"`
	Minute  int  `toml:"minute"`
}

// WeeklyTrigger fires weekly(last_iso_week) on Weekday (0=Sunday) at Hour:Minute.
type WeeklyTrigger struct {
	Enabled bool `toml:"enabled"`
	Weekday int  `toml:"weekday"`
	Hour    int  `toml:"hour"`
	Minute  int  `toml:"minute"`
}

// MonthlyTrigger fires the monthly cascade on DayOfMonth at Hour:Minute.
type MonthlyTrigger struct {
	Enabled     bool `toml:"enabled"`
	DayOfMonth  int  `toml:"day_of_month"`
	Hour        int  `toml:"hour"`
	Minute      int  `toml:"minute"`
}

// YearlyTrigger fires the yearly cascade on Month/Day at Hour:Minute.
type YearlyTrigger struct {
	Enabled bool `toml:"enabled"`
	Month   int  `toml:"month"`
	Day     int  `toml:"day"`
	Hour    int  `toml:"hour"`
	Minute  int  `toml:"minute"`
}

// LoadScheduleConfig reads the scheduler TOML file at path.
func LoadScheduleConfig(path string) (*ScheduleConfig, error) {
	var cfg ScheduleConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse schedule config %s: %w", path, err)
	}
	return &cfg, nil
}

// CronSpec renders the standard 5-field cron expression for this trigger.
func (t DailyTrigger) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

func (t WeeklyTrigger) CronSpec() string {
	return fmt.Sprintf("%d %d * * %d", t.Minute, t.Hour, t.Weekday)
}

func (t MonthlyTrigger) CronSpec() string {
	return fmt.Sprintf("%d %d %d * *", t.Minute, t.Hour, t.DayOfMonth)
}

func (t YearlyTrigger) CronSpec() string {
	return fmt.Sprintf("%d %d %d %d *", t.Minute, t.Hour, t.Day, t.Month)
}
