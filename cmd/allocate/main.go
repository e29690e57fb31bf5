package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"venue-service/internal/models"
	"venue-service/internal/service"
	"venue-service/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagTables          = "tables"
	flagReservations    = "reservations"
	flagDate            = "date"
	flagFormat          = "format"
	flagLogLevel        = "log-level"
	configKeyTables     = "tables_file"
	configKeyReserv     = "reservations_file"
	configKeyDate       = "date"
	configKeyFormat     = "format"
	configKeyLogLevel   = "log_level"
	formatText          = "text"
	formatJSON          = "json"
	defaultFormat       = formatText
	defaultLogLevel     = "warn"
	unassignedTableText = "-"
)

type runtimeConfig struct {
	TablesFile       string
	ReservationsFile string
	Date             string
	Format           string
	LogLevel         string
}

type dayAllocation struct {
	Date         string                      `json:"date"`
	Reservations []models.Reservation        `json:"reservations"`
	Clocks       map[string]models.ClockTime `json:"clocks"`
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "allocate: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "allocate",
		Short:         "Assign tables to confirmed reservations offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, v, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer util.SyncLogger()
			return run(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().String(flagTables, "", "JSON file with the table registry")
	cmd.Flags().String(flagReservations, "", "JSON file with the reservations")
	cmd.Flags().String(flagDate, "", "only allocate this date (YYYY-MM-DD)")
	cmd.Flags().String(flagFormat, defaultFormat, "output format: text or json")
	cmd.Flags().String(flagLogLevel, defaultLogLevel, "log level")

	return cmd
}

func loadConfig(cmd *cobra.Command, v *viper.Viper, cfg *runtimeConfig) error {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	bindings := []struct {
		key, env, flag string
	}{
		{configKeyTables, "ALLOCATE_TABLES_FILE", flagTables},
		{configKeyReserv, "ALLOCATE_RESERVATIONS_FILE", flagReservations},
		{configKeyDate, "ALLOCATE_DATE", flagDate},
		{configKeyFormat, "ALLOCATE_FORMAT", flagFormat},
		{configKeyLogLevel, "LOG_LEVEL", flagLogLevel},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return err
		}
		if err := v.BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return err
		}
	}

	cfg.TablesFile = v.GetString(configKeyTables)
	cfg.ReservationsFile = v.GetString(configKeyReserv)
	cfg.Date = v.GetString(configKeyDate)
	cfg.Format = strings.ToLower(v.GetString(configKeyFormat))
	cfg.LogLevel = v.GetString(configKeyLogLevel)

	if cfg.TablesFile == "" {
		return fmt.Errorf("--%s is required", flagTables)
	}
	if cfg.ReservationsFile == "" {
		return fmt.Errorf("--%s is required", flagReservations)
	}
	if cfg.Format != formatText && cfg.Format != formatJSON {
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
	return util.InitLogger("development", cfg.LogLevel)
}

func run(out io.Writer, cfg *runtimeConfig) error {
	logger := util.GetLogger()

	var tables []models.Table
	if err := readJSON(cfg.TablesFile, &tables); err != nil {
		return fmt.Errorf("tables: %w", err)
	}
	var reservations []models.Reservation
	if err := readJSON(cfg.ReservationsFile, &reservations); err != nil {
		return fmt.Errorf("reservations: %w", err)
	}

	days := allocate(tables, reservations, cfg.Date)
	logger.Debug("Allocation finished",
		zap.Int("tables", len(tables)),
		zap.Int("reservations", len(reservations)),
		zap.Int("days", len(days)))

	if cfg.Format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(days)
	}
	return writeText(out, days)
}

// allocate runs the allocator once per date, since table clocks reset every day
func allocate(tables []models.Table, reservations []models.Reservation, date string) []dayAllocation {
	byDate := make(map[string][]models.Reservation)
	for _, r := range reservations {
		if date != "" && r.Date != date {
			continue
		}
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	days := make([]dayAllocation, 0, len(dates))
	for _, d := range dates {
		day := byDate[d]
		sort.SliceStable(day, func(i, j int) bool { return day[i].Time < day[j].Time })
		result := service.AssignTables(day, tables)
		days = append(days, dayAllocation{Date: d, Reservations: result.Reservations, Clocks: result.Clocks})
	}
	return days
}

func writeText(out io.Writer, days []dayAllocation) error {
	for _, day := range days {
		if _, err := fmt.Fprintf(out, "%s\n", day.Date); err != nil {
			return err
		}
		for _, r := range day.Reservations {
			table := r.AssignedTable
			if table == "" {
				table = unassignedTableText
			}
			if _, err := fmt.Fprintf(out, "  %s  %-10s party=%-3d %-10s table=%s\n",
				r.Time, r.ID, r.PartySize, r.Status, table); err != nil {
				return err
			}
		}
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
