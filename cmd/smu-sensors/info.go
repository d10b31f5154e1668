package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/cpu"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// driverInfo is what `info` reports. Fields the driver could not
// supply are left empty.
type driverInfo struct {
	SysfsPath       string       `json:"sysfs_path"`
	Firmware        string       `json:"firmware_version,omitempty"`
	Driver          string       `json:"driver_version,omitempty"`
	CodenameID      uint32       `json:"codename_id"`
	Codename        smu.Codename `json:"codename"`
	TableVersion    string       `json:"pm_table_version"`
	Layout          string       `json:"layout,omitempty"`
	TableSize       int          `json:"pm_table_size"`
	CoreCount       int          `json:"core_count,omitempty"`
	CoreCountSource string       `json:"core_count_source,omitempty"`
	CoreCountError  string       `json:"core_count_error,omitempty"`
	CPUModel        string       `json:"cpu_model,omitempty"`
	PhysicalCores   int          `json:"physical_cores"`
	LogicalCores    int          `json:"logical_cores"`
}

func newInfoCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show driver metadata and the resolved core count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			access, err := smu.Open(c.SysfsPath)
			if err != nil {
				return err
			}
			info, err := collectInfo(access, coreHint(c), cpu.Detect())
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), info, c.Format)
		},
	}
}

// collectInfo reads the metadata entries. The codename and table
// version are required; the rest are best-effort.
func collectInfo(access *smu.Access, hint func() int, topo *cpu.Topology) (*driverInfo, error) {
	info := &driverInfo{SysfsPath: access.Root()}
	info.Firmware, _ = access.FirmwareVersion()
	info.Driver, _ = access.DriverVersion()
	info.TableSize, _ = access.TableSize()

	id, err := access.CodenameID()
	if err != nil {
		return nil, err
	}
	info.CodenameID = id
	info.Codename = smu.CodenameFromID(id)

	version, err := access.TableVersion()
	if err != nil {
		return nil, err
	}
	info.TableVersion = fmt.Sprintf("%#x", version)
	if layout, ok := smu.Layouts.Lookup(version); ok {
		info.Layout = layout.Name
	}

	if n, source, err := smu.ResolveCoreCount(hint(), id); err == nil {
		info.CoreCount, info.CoreCountSource = n, source.String()
	} else {
		info.CoreCountError = err.Error()
	}

	if topo != nil {
		info.CPUModel = topo.ModelName
		info.PhysicalCores = topo.PhysicalCores
		info.LogicalCores = topo.LogicalCores
	}
	return info, nil
}

func writeInfo(w io.Writer, info *driverInfo, format string) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	layout := info.Layout
	if layout == "" {
		layout = "unsupported"
	}
	cores := fmt.Sprintf("%d (%s)", info.CoreCount, info.CoreCountSource)
	if info.CoreCountError != "" {
		cores = "unknown: " + info.CoreCountError
	}
	rows := [][2]string{
		{"Sysfs path", info.SysfsPath},
		{"SMU firmware", info.Firmware},
		{"Driver version", info.Driver},
		{"Codename", fmt.Sprintf("%s (ID: %d)", info.Codename, info.CodenameID)},
		{"PM table version", fmt.Sprintf("%s (%s)", info.TableVersion, layout)},
		{"PM table size", fmt.Sprintf("%d bytes", info.TableSize)},
		{"Cores", cores},
		{"CPU", fmt.Sprintf("%s (%d physical / %d logical)", info.CPUModel, info.PhysicalCores, info.LogicalCores)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-18s%s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}
