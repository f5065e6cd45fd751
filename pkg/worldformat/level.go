package worldformat

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/nbt"
)

// Point2 is a pair of world-space coordinates (border center, in blocks).
type Point2 struct {
	X, Z float64
}

// BlockPos is a block-grid coordinate (world spawn point).
type BlockPos struct {
	X, Y, Z int32
}

// WorldInfo is the top-level world-info document decoded from level.dat.
type WorldInfo struct {
	BorderCenter         Point2
	BorderDamagePerBlock float64
	BorderSize           float64
	BorderSafeZone       float64
	BorderSizeLerpTarget float64
	BorderWarningBlocks  float64
	BorderWarningTime    float64
	ClearWeatherTime     int32
	DayTime              int64
	Seed                 int64
	Raining              bool
	RainTime             int32
	Spawn                BlockPos
	Thundering           bool
	ThunderTime          int32
	Time                 int64
}

type levelDatDocument struct {
	Data struct {
		BorderCenterX        float64 `nbt:"BorderCenterX"`
		BorderCenterZ        float64 `nbt:"BorderCenterZ"`
		BorderDamagePerBlock float64 `nbt:"BorderDamagePerBlock"`
		BorderSize           float64 `nbt:"BorderSize"`
		BorderSafeZone       float64 `nbt:"BorderSafeZone"`
		BorderSizeLerpTarget float64 `nbt:"BorderSizeLerpTarget"`
		BorderWarningBlocks  float64 `nbt:"BorderWarningBlocks"`
		BorderWarningTime    float64 `nbt:"BorderWarningTime"`
		ClearWeatherTime     int32   `nbt:"clearWeatherTime"`
		DayTime              int64   `nbt:"DayTime"`
		WorldGenSettings     struct {
			Seed int64 `nbt:"seed"`
		} `nbt:"WorldGenSettings"`
		Raining     bool  `nbt:"raining"`
		RainTime    int32 `nbt:"rainTime"`
		SpawnX      int32 `nbt:"SpawnX"`
		SpawnY      int32 `nbt:"SpawnY"`
		SpawnZ      int32 `nbt:"SpawnZ"`
		Thundering  bool  `nbt:"thundering"`
		ThunderTime int32 `nbt:"thunderTime"`
		Time        int64 `nbt:"Time"`
	} `nbt:"Data"`
}

// readLevelDat loads world_path/level.dat: gzip-decompress, then parse the
// tagged binary document into WorldInfo (§4.5 entry point).
func readLevelDat(worldPath string) (WorldInfo, error) {
	raw, err := os.ReadFile(filepath.Join(worldPath, "level.dat"))
	if err != nil {
		return WorldInfo{}, &IoError{Op: "read level.dat", Err: err}
	}

	decompressed, err := schemeGZip.decompress(raw)
	if err != nil {
		return WorldInfo{}, err
	}

	var doc levelDatDocument
	if _, err := nbt.NewDecoder(bytes.NewReader(decompressed)).Decode(&doc); err != nil {
		return WorldInfo{}, &DeserializationError{Msg: err.Error()}
	}

	d := doc.Data
	return WorldInfo{
		BorderCenter:         Point2{X: d.BorderCenterX, Z: d.BorderCenterZ},
		BorderDamagePerBlock: d.BorderDamagePerBlock,
		BorderSize:           d.BorderSize,
		BorderSafeZone:       d.BorderSafeZone,
		BorderSizeLerpTarget: d.BorderSizeLerpTarget,
		BorderWarningBlocks:  d.BorderWarningBlocks,
		BorderWarningTime:    d.BorderWarningTime,
		ClearWeatherTime:     d.ClearWeatherTime,
		DayTime:              d.DayTime,
		Seed:                 d.WorldGenSettings.Seed,
		Raining:              d.Raining,
		RainTime:             d.RainTime,
		Spawn:                BlockPos{X: d.SpawnX, Y: d.SpawnY, Z: d.SpawnZ},
		Thundering:           d.Thundering,
		ThunderTime:          d.ThunderTime,
		Time:                 d.Time,
	}, nil
}
