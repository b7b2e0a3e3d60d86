package beamng

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"
)

// ModName is the directory and level name of the generated mod
const ModName = "generated_map"

// WriteMod writes the complete mod layout under outputPath and packages it
// into <outputPath>/generated_map.zip. Layout:
//
//	generated_map/
//	  info.json
//	  levels/generated_map/
//	    main.level.json
//	    items.level.json
//	    road_nodes.json
//	    decalRoad.json
//	    preview.jpg
//	    art/terrains/
//	      terrain.ter.json
//	      terrain.png
//
// The heightmap PNG is written by the caller into the terrains directory
// via the provided writeHeightmap callback, keeping image encoding out of
// this package.
func WriteMod(outputPath string, objects []Object, network RoadNetwork, writeHeightmap func(path string) error) (string, error) {
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	modPath := filepath.Join(outputPath, ModName)
	levelPath := filepath.Join(modPath, "levels", ModName)
	terrainsPath := filepath.Join(levelPath, "art", "terrains")

	if err := os.MkdirAll(terrainsPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create level directories: %w", err)
	}

	if err := writeModInfo(modPath); err != nil {
		return "", err
	}
	if err := writeMainLevel(levelPath); err != nil {
		return "", err
	}
	if err := writeItemsLevel(levelPath, objects); err != nil {
		return "", err
	}
	if err := writeRoadFiles(levelPath, network); err != nil {
		return "", err
	}
	if err := writeTerrainConfig(terrainsPath); err != nil {
		return "", err
	}
	if err := writeHeightmap(filepath.Join(terrainsPath, "terrain.png")); err != nil {
		return "", fmt.Errorf("failed to write heightmap: %w", err)
	}
	if err := writePreview(filepath.Join(levelPath, "preview.jpg")); err != nil {
		return "", err
	}

	zipPath := filepath.Join(outputPath, ModName+".zip")
	// archiver refuses to overwrite an existing archive.
	os.Remove(zipPath)
	if err := archiver.Archive([]string{modPath}, zipPath); err != nil {
		return "", fmt.Errorf("failed to package mod: %w", err)
	}

	return zipPath, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeModInfo(modPath string) error {
	info := map[string]interface{}{
		"name":        fmt.Sprintf("Generated Map - %s", ModName),
		"version":     "1.0",
		"author":      "BeamNG Terrain Generator",
		"description": "Automatically generated map from real-world data using OpenStreetMap and AWS Terrain Tiles",
		"gameVersion": "0.32",
		"modType":     "level",
	}
	return writeJSON(filepath.Join(modPath, "info.json"), info)
}

func writeMainLevel(levelPath string) error {
	main := map[string]interface{}{
		"main": map[string]interface{}{
			"levelName":   fmt.Sprintf("Generated - %s", ModName),
			"title":       "Generated Map",
			"description": "Map generated from real-world OpenStreetMap data",
			"authors":     "BeamNG Terrain Generator",
			"biome":       "Urban",
			"previews":    []string{"preview.jpg"},
			"previewPosition": map[string]interface{}{
				"pos": []float64{1024, 1024, 100},
				"rot": []float64{0, 0, 1, 0},
			},
		},
		"spawn": map[string]interface{}{
			"defaultSpawnPoint": "spawn_0",
			"spawnPoints": []map[string]interface{}{
				{
					"objectname":     "spawn_0",
					"pos":            []float64{1024, 1024, 105},
					"rot":            []float64{0, 0, 1, 0},
					"rotationMatrix": [][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
				},
			},
		},
		"sun": map[string]interface{}{
			"azimuth":        0.0,
			"elevation":      45.0,
			"shadowDistance": 1000.0,
			"shadowSoftness": 0.15,
		},
	}
	return writeJSON(filepath.Join(levelPath, "main.level.json"), main)
}

type itemEntry struct {
	Class        string     `json:"class"`
	PersistentID string     `json:"persistentId"`
	Position     [3]float32 `json:"position"`
	Rotation     [4]int     `json:"rotation"`
	Scale        [3]int     `json:"scale"`
	GameObjectID int        `json:"__gameObjectId"`
}

func writeItemsLevel(levelPath string, objects []Object) error {
	items := make([]itemEntry, len(objects))
	for i, obj := range objects {
		items[i] = itemEntry{
			Class:        ObjectClass(obj.Type),
			PersistentID: fmt.Sprintf("%s_%d", obj.Type, i),
			Position:     obj.Position,
			Rotation:     [4]int{0, 0, 1, 0},
			Scale:        [3]int{1, 1, 1},
			GameObjectID: i + 1000,
		}
	}
	return writeJSON(filepath.Join(levelPath, "items.level.json"), map[string]interface{}{
		"objects": items,
	})
}

type decalRoadNode struct {
	Pos        [3]float32 `json:"pos"`
	Width      float32    `json:"width"`
	WidthLeft  float32    `json:"widthLeft"`
	WidthRight float32    `json:"widthRight"`
}

type decalRoad struct {
	Class         string          `json:"class"`
	PersistentID  string          `json:"persistentId"`
	Position      [3]float32      `json:"position"`
	Detail        int             `json:"detail"`
	BreakAngle    float64         `json:"breakAngle"`
	TextureLength float64         `json:"textureLength"`
	Material      string          `json:"Material"`
	Nodes         []decalRoadNode `json:"nodes"`
}

func writeRoadFiles(levelPath string, network RoadNetwork) error {
	if err := writeJSON(filepath.Join(levelPath, "road_nodes.json"), network); err != nil {
		return err
	}

	nodeByID := make(map[string]RoadNode, len(network.Nodes))
	for _, n := range network.Nodes {
		nodeByID[n.ID] = n
	}

	decalRoads := make([]decalRoad, 0, len(network.Segments))
	for _, seg := range network.Segments {
		start, okStart := nodeByID[seg.StartNode]
		end, okEnd := nodeByID[seg.EndNode]
		if !okStart || !okEnd {
			continue
		}

		half := seg.Width / 2
		decalRoads = append(decalRoads, decalRoad{
			Class:         "DecalRoad",
			PersistentID:  seg.ID,
			Position:      start.Position,
			Detail:        4,
			BreakAngle:    3.0,
			TextureLength: 5.0,
			Material:      RoadMaterial(seg.RoadType),
			Nodes: []decalRoadNode{
				{Pos: start.Position, Width: seg.Width, WidthLeft: half, WidthRight: half},
				{Pos: end.Position, Width: seg.Width, WidthLeft: half, WidthRight: half},
			},
		})
	}

	return writeJSON(filepath.Join(levelPath, "decalRoad.json"), map[string]interface{}{
		"decalRoads": decalRoads,
	})
}

func writeTerrainConfig(terrainsPath string) error {
	ter := map[string]interface{}{
		"terrainSize": LevelSize,
		"squareSize":  1.0,
		"heightScale": 256.0,
		"heightMap":   "terrain.png",
	}
	return writeJSON(filepath.Join(terrainsPath, "terrain.ter.json"), ter)
}

// writePreview renders a placeholder gradient preview image
func writePreview(path string) error {
	const size = 512
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / size),
				G: uint8(y * 255 / size),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}
