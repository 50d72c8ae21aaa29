package service

import (
	"context"
	"fmt"
	"time"
	"tour_verify/internal/domain/verification/model"
	"tour_verify/internal/domain/verification/repository"
	"tour_verify/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CooldownWindow 同一游客在同一景区两次 QR 核销之间的最小间隔
const CooldownWindow = 30 * 24 * time.Hour

// CooldownPolicy 防刷冷却策略
// 只约束可复用码：30 日滚动窗口内同一 (游客, 景区) 不得重复核销。
// 一次性码不受冷却限制，是冷却期内重游的兜底通道。
// Redis 仅作快路径标记，数据库查询是最终裁决
type CooldownPolicy struct {
	repo repository.VerificationRepository
	rdb  *redis.Client
}

func NewCooldownPolicy(repo repository.VerificationRepository, rdb *redis.Client) *CooldownPolicy {
	return &CooldownPolicy{repo: repo, rdb: rdb}
}

func cooldownKey(touristID, attractionID string) string {
	return fmt.Sprintf("cooldown:%s:%s", touristID, attractionID)
}

// MayRedeem 核销前的强制校验
func (p *CooldownPolicy) MayRedeem(touristID, attractionID, kind string) error {
	if kind != model.KindReusable {
		return nil
	}

	active, err := p.HasActiveCooldown(touristID, attractionID)
	if err != nil {
		return err
	}
	if active {
		return ErrCooldownActive
	}
	return nil
}

// HasActiveCooldown 是否处于冷却窗口内
// 报名时的提示与核销时的强制校验共用此查询
func (p *CooldownPolicy) HasActiveCooldown(touristID, attractionID string) (bool, error) {
	// 快路径：Redis 标记
	if p.rdb != nil {
		n, err := p.rdb.Exists(context.Background(), cooldownKey(touristID, attractionID)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		// Redis 异常降级到数据库
	}

	since := time.Now().Add(-CooldownWindow)
	return p.repo.HasRecentRedemption(touristID, attractionID, model.KindReusable, since)
}

// MarkRedeemed QR 核销成功后写入冷却标记
// 写入失败不影响主流程，数据库记录兜底
func (p *CooldownPolicy) MarkRedeemed(touristID, attractionID string) {
	if p.rdb == nil {
		return
	}
	err := p.rdb.Set(context.Background(), cooldownKey(touristID, attractionID), 1, CooldownWindow).Err()
	if err != nil {
		logger.Log.Warn("failed to set cooldown mark",
			zap.String("tourist_id", touristID),
			zap.String("attraction_id", attractionID),
			zap.Error(err),
		)
	}
}
