// Package config provides the level catalog for the stone slide puzzle.
//
// The config package handles:
//   - Loading levels from a directory of .json, .yaml and .txt files
//   - Level validation on load and save
//   - Default level selection
//   - Level discovery and listing
//
// Level Formats:
//
// A level is identified by its file name without extension. JSON and YAML
// files hold a name, a description, a stone to destination map and the
// layout rows. Text files use the compact form, a legend line of
// stone/destination pairs followed by the layout:
//
//	Aa Bb
//	XXXXXX
//	XA  bX
//	X XX X
//	XB  aX
//	XXXXXX
//
// X is a wall. Every other character is an open tile; stone and
// destination characters mark where they sit.
//
// Usage:
//
//	manager, err := config.NewManager("levels", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("corridor")
//	levels, err := manager.ListLevels()
//	id := manager.DefaultLevelID()
package config
