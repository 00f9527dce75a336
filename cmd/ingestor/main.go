package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samirrijal/sgrent/internal/adapters/postgres"
	"github.com/samirrijal/sgrent/internal/core/catalog"
	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/config"
)

// Usage:
//
//	ingestor                 load the embedded station table
//	ingestor stations.yaml   load a YAML table in the embedded format
//	ingestor stations.csv    load a CSV table with name,type,lat,lng columns
//	ingestor -export         print the stored table as YAML
func main() {
	cfg, err := config.Load("sgrent-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewStationRepo(db)

	if len(os.Args) > 1 && os.Args[1] == "-export" {
		stations, err := repo.List(ctx)
		if err != nil {
			log.Fatalf("list stations: %v", err)
		}
		out, err := catalog.Encode(stations)
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	source := "embedded"
	var c *catalog.Catalog
	if len(os.Args) > 1 {
		source = os.Args[1]
		c, err = loadFile(source)
	} else {
		c, err = catalog.Load()
	}
	if err != nil {
		log.Fatalf("load %s: %v", source, err)
	}

	log.Printf("sgrent station ingestor: %d stations from %s", c.Len(), source)

	before, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("count stations: %v", err)
	}
	if err := repo.ReplaceAll(ctx, c.Stations()); err != nil {
		log.Fatalf("replace stations: %v", err)
	}

	log.Printf("ingestion complete: %d stations replaced by %d", before, c.Len())
}

func loadFile(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		stations, err := readCSV(f)
		if err != nil {
			return nil, err
		}
		return catalog.New(stations)
	case ".yaml", ".yml":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return catalog.Parse(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// readCSV reads stations in file order. Columns are located by header name.
func readCSV(r io.Reader) ([]domain.Station, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"name", "type", "lat", "lng"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var stations []domain.Station
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cat, err := domain.ParseCategory(rec[idx["type"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lat"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lat: %w", line, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lng"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lng: %w", line, err)
		}
		stations = append(stations, domain.Station{
			Name:     strings.TrimSpace(rec[idx["name"]]),
			Category: cat,
			Position: domain.GeoPoint{Lat: lat, Lng: lng},
		})
	}
	return stations, nil
}
