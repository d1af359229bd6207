package store

// Metric names used across the three tables. These form the persisted
// contract dashboards and replay tooling key on, so renaming one is a
// breaking change.
const (
	MetricSoC           = "soc"
	MetricPowerKW       = "power_kw"
	MetricState         = "state"
	MetricPVPowerKW     = "pv_power_kw"
	MetricPVTotalKW     = "pv_total_kw"
	MetricConsumptionKW = "consumption_kw"
	MetricGridImportKW  = "grid_import_kw"
	MetricGridExportKW  = "grid_export_kw"
	MetricRequiredKWh   = "required_kwh"
	MetricAvailable     = "available"
	MetricShortfallKWh  = "shortfall_kwh"
)

// SourcePort is the source name for port-level aggregates such as total
// consumption and grid import.
const SourcePort = "port"
