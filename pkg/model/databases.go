package model

import "sort"

// Databases used by the platform
const (
	DBEnvironment            = "environment"
	DBEnvironmentalDataPoint = "environmental_data_point"
	DBFirmwareModule         = "firmware_module"
	DBFirmwareModuleType     = "firmware_module_type"
	DBRecipe                 = "recipe"
	DBSoftwareModule         = "software_module"
	DBSoftwareModuleType     = "software_module_type"
)

// GlobalDatabases are shared by every farm, and pulled from the cloud server
func GlobalDatabases() []string {
	return []string{
		DBFirmwareModuleType,
		DBRecipe,
		DBSoftwareModuleType,
	}
}

// PerFarmDatabases hold data specific to a farm, and are pushed to the cloud server
func PerFarmDatabases() []string {
	return []string{
		DBEnvironment,
		DBEnvironmentalDataPoint,
		DBFirmwareModule,
		DBSoftwareModule,
	}
}

// AllDatabases is the sorted list of databases a local server must hold
func AllDatabases() []string {
	all := append(GlobalDatabases(), PerFarmDatabases()...)
	sort.Strings(all)
	return all
}
