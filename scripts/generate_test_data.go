package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gestor/internal/config"
	"github.com/gestor/internal/db"
	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/service"
	"github.com/gestor/internal/store"
)

const demoEmail = "demo@example.com"

// 测试数据生成器
func main() {
	cfg, err := config.Load(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}

	ctx := context.Background()
	backend, err := db.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	adapter := store.New(backend)
	defer adapter.Close()

	fmt.Println("开始生成测试数据...")

	userID, created, err := generateTestData(ctx, adapter)
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}
	if created == 0 {
		fmt.Println("测试数据已存在，跳过创建")
		return
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (Authorization: Bearer %s)\n", userID, userID)
	fmt.Printf("文档: %d 条\n", created)
}

// generateTestData 为演示用户写入一周的样例数据，已有任务时不重复写入。
func generateTestData(ctx context.Context, adapter *store.Adapter) (string, int, error) {
	login, err := service.NewAuthService(adapter).Login(ctx, demoEmail, "Demo")
	if err != nil {
		return "", 0, fmt.Errorf("create demo user: %w", err)
	}
	userID := login.UserID

	existing, err := adapter.Find(ctx, schema.CollectionTask, store.Eq("user_id", userID), store.Limit(1))
	if err != nil {
		return "", 0, err
	}
	if len(existing) > 0 {
		return userID, 0, nil
	}

	records := 0
	recordsSvc := service.NewRecordService(adapter)
	for _, record := range demoRecords(userID, adapter.Now()) {
		if _, err := recordsSvc.Create(ctx, record); err != nil {
			return "", records, fmt.Errorf("create %s: %w", record.Collection(), err)
		}
		records++
	}
	return userID, records, nil
}

func demoRecords(userID string, now time.Time) []schema.Record {
	owner := schema.Owner{UserID: userID}
	today := schema.NewDate(now)
	tomorrow := schema.NewDate(now.AddDate(0, 0, 1))
	birthday := schema.NewDate(time.Date(1985, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	at := func(days, hour int) schema.DateTime {
		base := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		return schema.NewDateTime(base.AddDate(0, 0, days))
	}
	location := "Escritório"

	return []schema.Record{
		&schema.Task{Owner: owner, Title: "Enviar relatório trimestral", Priority: "urgent", DueDate: &today, Scope: "work"},
		&schema.Task{Owner: owner, Title: "Marcar dentista", Priority: "medium", DueDate: &tomorrow},
		&schema.Task{Owner: owner, Title: "Ler capítulo 3", Priority: "low"},
		&schema.Event{Owner: owner, Title: "Reunião de equipa", Category: "work", StartTime: at(0, 14), EndTime: at(0, 15), Location: &location},
		&schema.Event{Owner: owner, Title: "Treino", StartTime: at(2, 7), EndTime: at(2, 8)},
		&schema.FocusBlock{Owner: owner, Title: "Escrita profunda", StartTime: at(1, 9), EndTime: at(1, 11)},
		&schema.Goal{Owner: owner, Title: "Correr 10km", Horizon: "quarterly", Progress: 40, Actions: []string{"3 treinos por semana"}},
		&schema.Goal{Owner: owner, Title: "Ler 12 livros", Horizon: "annual", Progress: 25},
		&schema.HealthLog{Owner: owner, Type: "energy", Value: 72, Timestamp: at(0, 8)},
		&schema.HealthLog{Owner: owner, Type: "mood", Value: 8, Timestamp: at(0, 7)},
		&schema.MealPlan{Owner: owner, Date: today, Meals: []string{"aveia", "salada de grão", "sopa"}, ShoppingList: []string{"grão", "espinafres"}},
		&schema.FamilyItem{Owner: owner, Title: "Revisão do carro", DueDate: &tomorrow},
		&schema.Contact{Owner: owner, Name: "Avó Rosa", Birthday: &birthday},
		&schema.Note{Owner: owner, Title: "Ideias", Content: "## Projeto\n\n- **MVP** em duas semanas\n- validar com 5 utilizadores"},
		&schema.Habit{Owner: owner, Name: "Beber água", TargetPerDay: 8},
		&schema.Habit{Owner: owner, Name: "Meditar", TargetPerDay: 1},
	}
}
