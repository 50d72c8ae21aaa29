package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
	"tour_verify/internal/pkg/config"
	"tour_verify/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type OTPService interface {
	Send(mobile string) (string, error)
	Verify(mobile, code string) bool
}

type otpService struct {
	rdb *redis.Client
}

func NewOTPService(rdb *redis.Client) OTPService {
	return &otpService{rdb: rdb}
}

// Send 生成并发送验证码
// 真实场景下应调用短信服务商接口，这里生成 6 位随机数存入 Redis 并记录日志
func (s *otpService) Send(mobile string) (string, error) {
	// 1. 频率限制 (1分钟内只能发一次)
	key := fmt.Sprintf("otp:%s", mobile)
	ttl, err := s.rdb.TTL(context.Background(), key).Result()
	if err == nil && ttl > 4*time.Minute { // 5分钟有效期，剩余 > 4分钟说明刚发不久
		return "", fmt.Errorf("please wait before sending again")
	}

	// 2. 生成验证码
	code, err := randomDigits(6)
	if err != nil {
		return "", err
	}
	// 测试环境支持固定验证码，方便联调
	if test := config.GlobalConfig.App.TestOTPCode; test != "" && config.GlobalConfig.App.Env != "production" {
		code = test
	}

	// 3. 存入 Redis (5分钟过期)
	if err := s.rdb.Set(context.Background(), key, code, 5*time.Minute).Err(); err != nil {
		return "", err
	}

	// 4. 发送 (Mock: 记录日志)
	logger.Log.Info("OTP sent", zap.String("mobile", mobile))

	return code, nil
}

// Verify 验证验证码
// 验证成功后立即删除，防止重放
func (s *otpService) Verify(mobile, code string) bool {
	key := fmt.Sprintf("otp:%s", mobile)
	val, err := s.rdb.Get(context.Background(), key).Result()
	if err != nil {
		return false
	}

	if val == code {
		s.rdb.Del(context.Background(), key)
		return true
	}
	return false
}

// randomDigits 生成 n 位数字验证码
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
