// Package graph provides the file format for tech trees.
//
// A tree file lists nodes in the order they should appear in the first layer
// and optionally overrides node box geometry. JSON, TOML and YAML are supported;
// [ReadTreeFile] picks the decoder from the file extension.
//
// # JSON
//
//	{
//	  "nodes": [
//	    {"id": "fire", "label": "Fire"},
//	    {"id": "cooking", "prereqs": ["fire"], "desc": "Heat makes food safer."},
//	    {"id": "feast", "type": "goal", "prereqs": ["cooking"]}
//	  ],
//	  "layout": {"nodeWidth": 150}
//	}
//
// # TOML
//
//	[layout]
//	nodeWidth = 150
//
//	[[nodes]]
//	id = "fire"
//	label = "Fire"
//
//	[[nodes]]
//	id = "cooking"
//	prereqs = ["fire"]
//
// # YAML
//
//	layout:
//	  nodeWidth: 150
//	nodes:
//	  - id: fire
//	    label: Fire
//	  - id: cooking
//	    prereqs: [fire]
//
// # Conversion
//
// [Tree.ToNodes] turns a decoded tree into engine input. It only checks node
// types; duplicate ids, dangling prereqs and cycles are reported when the
// engine is built.
package graph
