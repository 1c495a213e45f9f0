package config

import (
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf

	ChatModel ModelConf
	Catalog   CatalogConf

	SnowflakeNode int64 `json:",optional"`
}

type ModelConf struct {
	BaseUrl string `json:",optional"`
	APIKey  string
	Model   string
}

type CatalogConf struct {
	ProductsFile string
	ProjectsFile string
	TrendsFile   string
}
