package svc

import (
	"context"

	"CraftMateAI/app/assistant/internal/agent/bundle"
	"CraftMateAI/app/assistant/internal/agent/catalog"
	"CraftMateAI/app/assistant/internal/agent/chat"
	"CraftMateAI/app/assistant/internal/agent/tools"
	"CraftMateAI/app/assistant/internal/config"
	"CraftMateAI/app/common/snowflake"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/zeromicro/go-zero/core/logx"
)

type ServiceContext struct {
	Config config.Config

	ChatModel model.ToolCallingChatModel
	Catalog   *catalog.Store
	Memory    *chat.Memory
	Agent     *chat.Agent
}

func NewServiceContext(c config.Config) *ServiceContext {
	sc := &ServiceContext{Config: c}

	if c.SnowflakeNode > 0 {
		if err := snowflake.SetNodeID(c.SnowflakeNode); err != nil {
			logx.Errorw("set snowflake node failed", logx.Field("err", err))
		}
	}

	store, err := catalog.Load(catalog.Conf{
		ProductsFile: c.Catalog.ProductsFile,
		ProjectsFile: c.Catalog.ProjectsFile,
		TrendsFile:   c.Catalog.TrendsFile,
	})
	logx.Must(err)
	sc.Catalog = store
	logx.Infow("catalog loaded",
		logx.Field("products", len(store.Products())),
		logx.Field("projects", len(store.Projects())),
		logx.Field("trends", len(store.Trends())))

	cm, err := ark.NewChatModel(context.Background(), &ark.ChatModelConfig{
		BaseURL: c.ChatModel.BaseUrl,
		APIKey:  c.ChatModel.APIKey,
		Model:   c.ChatModel.Model,
	})
	if err != nil {
		logx.Errorw("init ark chat model failed", logx.Field("err", err))
	} else {
		sc.ChatModel = cm
		logx.Infow("ark chat model initialized")
	}

	log := logx.WithContext(context.Background())
	sc.Memory = chat.NewMemory()
	composer := bundle.NewComposer(log, sc.Catalog, sc.ChatModel, nil)
	executor := tools.NewExecutor(log, sc.Catalog, composer)
	sc.Agent = chat.NewAgent(log, sc.ChatModel, executor, sc.Memory)

	return sc
}
