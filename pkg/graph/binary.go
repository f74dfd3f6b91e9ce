package graph

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/twhume/openstreetmap-router/pkg/apierr"
)

// Little-endian on-disk layout: a 32-byte header, the tightly packed
// node and adjacency arrays, then (v2 only) the per-edge metadata
// indices and the two string tables.
const (
	magicBytes  = "CSRG"
	version1    = uint32(1)
	version2    = uint32(2)
	headerBytes = 32
)

type fileHeader struct {
	Magic    [4]byte
	Version  uint32
	NumNodes uint32
	NumEdges uint32 // 2E, directed slot count
	Reserved [16]byte
}

// WriteBinary serializes g to path in the v2 on-disk format, writing to
// a temp file and renaming into place so a crashed export never leaves a
// truncated graph at path.
func WriteBinary(path string, g *Graph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	w := f

	hdr := fileHeader{
		Version:  version2,
		NumNodes: uint32(len(g.NodeIDs)),
		NumEdges: uint32(len(g.AdjTargets)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, g.NodeIDs); err != nil {
		return fmt.Errorf("write node_ids: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.NodeLats); err != nil {
		return fmt.Errorf("write node_lats: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.NodeLons); err != nil {
		return fmt.Errorf("write node_lons: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.AdjOffsets); err != nil {
		return fmt.Errorf("write adj_offsets: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.AdjTargets); err != nil {
		return fmt.Errorf("write adj_targets: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.AdjWeights); err != nil {
		return fmt.Errorf("write adj_weights: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.EdgeNameIndices); err != nil {
		return fmt.Errorf("write edge_name_indices: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, g.EdgeHighwayIndices); err != nil {
		return fmt.Errorf("write edge_highway_indices: %w", err)
	}
	if err := writeStringTable(w, g.NameTable); err != nil {
		return fmt.Errorf("write name_table: %w", err)
	}
	if err := writeStringTable(w, g.HighwayTable); err != nil {
		return fmt.Errorf("write highway_table: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a Graph from path, accepting either format
// version. Validates the header magic/version and the graph's structural
// invariants before returning.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var hdr fileHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read header", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, apierr.New(apierr.KindMalformedGraph, fmt.Sprintf("bad magic %q", hdr.Magic))
	}
	if hdr.Version != version1 && hdr.Version != version2 {
		return nil, apierr.New(apierr.KindMalformedGraph, fmt.Sprintf("unsupported version %d", hdr.Version))
	}

	n := int(hdr.NumNodes)
	twoE := int(hdr.NumEdges)

	g := &Graph{}

	g.NodeIDs = make([]int64, n)
	if err := binary.Read(f, binary.LittleEndian, g.NodeIDs); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read node_ids", err)
	}
	g.NodeLats = make([]float32, n)
	if err := binary.Read(f, binary.LittleEndian, g.NodeLats); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read node_lats", err)
	}
	g.NodeLons = make([]float32, n)
	if err := binary.Read(f, binary.LittleEndian, g.NodeLons); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read node_lons", err)
	}
	g.AdjOffsets = make([]int32, n+1)
	if err := binary.Read(f, binary.LittleEndian, g.AdjOffsets); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read adj_offsets", err)
	}
	g.AdjTargets = make([]int32, twoE)
	if err := binary.Read(f, binary.LittleEndian, g.AdjTargets); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read adj_targets", err)
	}
	g.AdjWeights = make([]float32, twoE)
	if err := binary.Read(f, binary.LittleEndian, g.AdjWeights); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformedGraph, "read adj_weights", err)
	}

	if hdr.Version >= version2 {
		g.EdgeNameIndices = make([]uint16, twoE)
		if err := binary.Read(f, binary.LittleEndian, g.EdgeNameIndices); err != nil {
			return nil, apierr.Wrap(apierr.KindMalformedGraph, "read edge_name_indices", err)
		}
		g.EdgeHighwayIndices = make([]uint8, twoE)
		if err := binary.Read(f, binary.LittleEndian, g.EdgeHighwayIndices); err != nil {
			return nil, apierr.Wrap(apierr.KindMalformedGraph, "read edge_highway_indices", err)
		}
		nameTable, err := readStringTable(f)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindMalformedGraph, "read name_table", err)
		}
		g.NameTable = nameTable
		highwayTable, err := readStringTable(f)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindMalformedGraph, "read highway_table", err)
		}
		g.HighwayTable = highwayTable
	}

	g.buildIDIndex()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func writeStringTable(w io.Writer, table []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(table))); err != nil {
		return err
	}
	for _, s := range table {
		b := []byte(s)
		if len(b) > math.MaxUint16 {
			return fmt.Errorf("string entry too long: %d bytes", len(b))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(b))); err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func readStringTable(r io.Reader) ([]string, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	table := make([]string, count)
	for i := range table {
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, err
		}
		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		table[i] = string(b)
	}
	return table, nil
}
