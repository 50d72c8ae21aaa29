package generator

import (
	"crypto/md5"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ErrGenerationFailed 重试耗尽仍未取得唯一码，属瞬时错误，调用方可重试
var ErrGenerationFailed = errors.New("failed to generate a unique code")

const (
	// 一次性码字符表：数字 + 大写字母，36^6 随机空间再叠加时间戳前缀
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	randomLen   = 6
	maxAttempts = 10

	// ReusablePrefix 可复用码的类型标记前缀
	ReusablePrefix = "QR-"
)

// ExistsFunc 查询码串是否已被占用
type ExistsFunc func(code string) (bool, error)

// Generator 验证码生成器
type Generator struct {
	exists ExistsFunc
	now    func() time.Time
}

func New(exists ExistsFunc) *Generator {
	return &Generator{exists: exists, now: time.Now}
}

// NewWithClock 测试用：注入时钟
func NewWithClock(exists ExistsFunc, now func() time.Time) *Generator {
	return &Generator{exists: exists, now: now}
}

// OneTime 生成一次性文字码
// 结构：unix 秒末4位的 36 进制（约3位）+ 6 位加密随机字符，全大写。
// 这是不记名凭证，随机部分必须来自 crypto/rand。
// 生成后查全局唯一性，冲突则换随机数重试，最多 maxAttempts 次
func (g *Generator) OneTime() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.mintOneTime()
		if err != nil {
			return "", err
		}

		taken, err := g.exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrGenerationFailed
}

func (g *Generator) mintOneTime() (string, error) {
	ts := g.now().Unix()
	tail := ts % 10000
	timestampPart := strconv.FormatInt(tail, 36)

	randomPart := make([]byte, randomLen)
	for i := range randomPart {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		randomPart[i] = alphabet[idx.Int64()]
	}

	return strings.ToUpper(timestampPart + string(randomPart)), nil
}

// Reusable 派生可复用码
// 由 (景区ID, 发放时刻) 单向散列截断得到，带类型前缀。
// 是否已有存活码、要不要复用，由调用方先查台账决定
func (g *Generator) Reusable(attractionID string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s%d", attractionID, g.now().Unix())))
	hexStr := fmt.Sprintf("%x", sum)
	return ReusablePrefix + strings.ToUpper(hexStr[:10])
}
