package main

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/collector"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/config"
)

// buildRegistry assembles every available collector: the portal crawlers
// plus one collector per house in the dataset catalog. A missing catalog
// file just means no dataset-backed sources.
func buildRegistry(cfg *config.Config) (*collector.Registry, error) {
	opts := collector.CrawlOptions{
		Delay:       cfg.Crawl.Delay(),
		Parallelism: cfg.Crawl.Parallelism,
		UserAgent:   cfg.Crawl.UserAgent,
	}

	reg := collector.NewRegistry()
	reg.Add(collector.NewRioDeJaneiro(opts))
	reg.Add(collector.NewSaoPaulo(opts))
	reg.Add(collector.NewLinhares(opts))
	reg.Add(collector.NewSaoJoseDosCampos(opts))
	reg.Add(collector.NewFortaleza(opts))
	reg.Add(collector.NewPocosDeCaldas(opts))

	if _, err := os.Stat(cfg.Catalog.Path); os.IsNotExist(err) {
		zap.L().Debug("no house catalog, dataset sources disabled",
			zap.String("path", cfg.Catalog.Path))
		return reg, nil
	}

	catalog, err := collector.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load house catalog")
	}
	for _, house := range catalog.Houses {
		reg.Add(collector.NewLegislAPI(catalog, house))
	}
	if _, err := os.Stat(catalog.NationalFile()); err == nil {
		reg.Add(collector.NewCamaraDeputados(catalog))
	} else {
		zap.L().Debug("no national chamber dump, source disabled",
			zap.String("path", catalog.NationalFile()))
	}

	return reg, nil
}
