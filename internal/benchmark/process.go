package benchmark

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

// processMemory samples this process's resident set size and unique set size
// in megabytes. USS comes from the grouped smaps accounting, which some
// platforms do not expose; a failed probe reports 0 for the affected value
// instead of failing the measured run.
func processMemory() (rssMb float64, ussMb float64) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.WithError(err).Debug("Could not inspect own process for memory usage")
		return 0, 0
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		log.WithError(err).Debug("Could not read process memory info")
	} else {
		rssMb = float64(info.RSS) / 1024 / 1024
	}
	grouped, err := proc.MemoryMaps(true)
	if err != nil {
		log.WithError(err).Debug("Could not read process memory maps, reporting uss as 0")
		return rssMb, 0
	}
	// MemoryMaps reports kilobytes.
	for _, m := range *grouped {
		ussMb += float64(m.PrivateClean+m.PrivateDirty) / 1024
	}
	return rssMb, ussMb
}
