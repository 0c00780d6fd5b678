// token 为宿主适配器签发或吊销访问令牌。
//
//	token -subject qq-bot-01                 签发 adapter 令牌
//	token -subject ops -role admin -ttl 24h  签发 admin 令牌
//	token -revoke <jti> -ttl 720h            将令牌 ID 加入黑名单（需要 Redis）
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wakeup-schedule/config"
	"wakeup-schedule/pkg/jwt"
	"wakeup-schedule/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	subject := flag.String("subject", "", "适配器名称")
	role := flag.String("role", jwt.RoleAdapter, "角色：adapter | admin")
	ttl := flag.Duration("ttl", 0, "有效期；吊销时为黑名单保留时长（默认取 auth.token_ttl）")
	revoke := flag.String("revoke", "", "要吊销的令牌 ID (jti)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("加载配置失败: %v", err)
	}

	if *revoke != "" {
		revokeToken(cfg, *revoke, *ttl)
		return
	}

	if *subject == "" {
		fail("必须指定 -subject")
	}
	if *role != jwt.RoleAdapter && *role != jwt.RoleAdmin {
		fail("未知角色 %q", *role)
	}

	token, claims, err := jwt.NewManager(&cfg.Auth).GenerateToken(*subject, *role, *ttl)
	if err != nil {
		fail("签发令牌失败: %v", err)
	}

	fmt.Printf("jti:     %s\n", claims.ID)
	fmt.Printf("expires: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
	fmt.Println(token)
}

func revokeToken(cfg *config.Config, jti string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	rdb, err := redis.NewClient(&cfg.Redis, zap.NewNop())
	if err != nil {
		fail("连接 Redis 失败: %v", err)
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.BlacklistToken(ctx, jti, ttl); err != nil {
		fail("吊销失败: %v", err)
	}
	fmt.Printf("已吊销 %s（保留 %s）\n", jti, ttl)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
