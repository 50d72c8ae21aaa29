package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	attractionService "tour_verify/internal/domain/attraction/service"
	"tour_verify/internal/domain/verification/generator"
	"tour_verify/internal/domain/verification/model"
	"tour_verify/internal/domain/verification/repository"
	"tour_verify/pkg/logger"
	"tour_verify/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxBulkQuantity 单次批量发码上限
const MaxBulkQuantity = 1000

// ManifestUploader 批量发码清单的外部存储（OSS）
// 为 nil 时清单仅随响应返回，不落外部存储
type ManifestUploader interface {
	Upload(name string, body []byte) (string, error)
}

// ManifestRow 清单行：列与顺序是对外契约，下游按码值逐条核销
type ManifestRow struct {
	Ordinal        int    `json:"ordinal"`
	Code           string `json:"code"`
	AttractionName string `json:"attractionName"`
	ExpiresAt      string `json:"expiresAt"`
}

// BulkResult 批量发码结果
// 单码失败只跳过不中断，SuccessCount 可能小于请求数量
type BulkResult struct {
	Requested    int           `json:"requested"`
	SuccessCount int           `json:"successCount"`
	Rows         []ManifestRow `json:"rows"`
	ManifestURL  string        `json:"manifestUrl,omitempty"`
}

type IssueService interface {
	IssueSingle(operatorID, attractionID, kind string) (*model.VerificationCode, error)
	IssueBulk(operatorID, attractionID string, quantity int) (*BulkResult, error)
	Stats(operatorID string) (*repository.CodeStats, error)
	PurgeInvalid(operatorID string) (int64, error)
	PurgeAll(operatorID string) (int64, error)
}

type issueService struct {
	repo        repository.VerificationRepository
	gen         *generator.Generator
	attractions attractionService.AttractionService
	uploader    ManifestUploader
}

func NewIssueService(
	repo repository.VerificationRepository,
	gen *generator.Generator,
	attractions attractionService.AttractionService,
	uploader ManifestUploader,
) IssueService {
	return &issueService{
		repo:        repo,
		gen:         gen,
		attractions: attractions,
		uploader:    uploader,
	}
}

// IssueSingle 单发验证码
// QR 码：已有存活码直接复用；没有才铸新码（30天有效）
// 文字码：每次铸新码（12小时有效）
func (s *issueService) IssueSingle(operatorID, attractionID, kind string) (*model.VerificationCode, error) {
	if err := s.attractions.RequireOwnership(operatorID, attractionID); err != nil {
		return nil, err
	}

	switch kind {
	case model.KindReusable:
		return s.issueReusable(operatorID, attractionID)
	case model.KindOneTime:
		return s.issueOneTime(operatorID, attractionID)
	default:
		return nil, fmt.Errorf("unknown code kind: %s", kind)
	}
}

func (s *issueService) issueReusable(operatorID, attractionID string) (*model.VerificationCode, error) {
	// 复用优先：已有未过期 QR 码直接返回
	existing, err := s.repo.FindLiveReusable(attractionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code := &model.VerificationCode{
		Code:         s.gen.Reusable(attractionID),
		AttractionID: attractionID,
		Kind:         model.KindReusable,
		ExpiresAt:    time.Now().Add(model.ReusableTTL),
		IssuedBy:     operatorID,
	}
	if err := s.repo.Issue(code); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			// 并发铸码竞争：对方已落库，读出来复用
			return s.repo.FindLiveReusable(attractionID)
		}
		return nil, err
	}

	metrics.Default.CodeIssued(model.KindReusable, 1)
	return code, nil
}

func (s *issueService) issueOneTime(operatorID, attractionID string) (*model.VerificationCode, error) {
	code, err := s.mintOneTime(operatorID, attractionID)
	if err != nil {
		return nil, err
	}
	metrics.Default.CodeIssued(model.KindOneTime, 1)
	return code, nil
}

// mintOneTime 生成并落库一次性码
// 生成器查重与唯一索引之间存在竞态窗口，落库冲突时整体重试
func (s *issueService) mintOneTime(operatorID, attractionID string) (*model.VerificationCode, error) {
	for attempt := 0; attempt < 3; attempt++ {
		raw, err := s.gen.OneTime()
		if err != nil {
			return nil, err
		}

		code := &model.VerificationCode{
			Code:         raw,
			AttractionID: attractionID,
			Kind:         model.KindOneTime,
			ExpiresAt:    time.Now().Add(model.OneTimeTTL),
			IssuedBy:     operatorID,
		}
		err = s.repo.Issue(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, err
		}
	}
	return nil, generator.ErrGenerationFailed
}

// IssueBulk 批量发放一次性码并生成清单
func (s *issueService) IssueBulk(operatorID, attractionID string, quantity int) (*BulkResult, error) {
	if quantity < 1 || quantity > MaxBulkQuantity {
		return nil, ErrQuantityRange
	}
	if err := s.attractions.RequireOwnership(operatorID, attractionID); err != nil {
		return nil, err
	}

	attraction, err := s.attractions.Get(attractionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &BulkResult{
		Requested: quantity,
		Rows:      make([]ManifestRow, 0, quantity),
	}

	for i := 0; i < quantity; i++ {
		code, err := s.mintOneTime(operatorID, attractionID)
		if err != nil {
			// 单码失败跳过，不中断整批
			logger.Log.Warn("bulk issuance: code skipped",
				zap.String("attraction_id", attractionID),
				zap.Int("ordinal", i+1),
				zap.Error(err),
			)
			continue
		}

		result.SuccessCount++
		result.Rows = append(result.Rows, ManifestRow{
			Ordinal:        result.SuccessCount,
			Code:           code.Code,
			AttractionName: attraction.Name,
			ExpiresAt:      code.ExpiresAt.Format("2006-01-02 15:04"),
		})
	}

	metrics.Default.CodeIssued(model.KindOneTime, result.SuccessCount)
	metrics.Default.ObserveBulkIssue(time.Since(start))

	if s.uploader != nil && result.SuccessCount > 0 {
		name := fmt.Sprintf("manifests/%s_%s.csv", attractionID, start.Format("20060102150405"))
		url, err := s.uploader.Upload(name, RenderManifestCSV(result.Rows))
		if err != nil {
			// 上传失败不影响发码结果，清单仍随响应返回
			logger.Log.Warn("manifest upload failed", zap.Error(err))
		} else {
			result.ManifestURL = url
		}
	}

	return result, nil
}

// RenderManifestCSV 渲染清单 CSV
// 列契约：ordinal, code, attraction_name, expires_at，按发放顺序排列
func RenderManifestCSV(rows []ManifestRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"ordinal", "code", "attraction_name", "expires_at"})
	for _, row := range rows {
		_ = w.Write([]string{
			strconv.Itoa(row.Ordinal),
			row.Code,
			row.AttractionName,
			row.ExpiresAt,
		})
	}
	w.Flush()
	return buf.Bytes()
}

// Stats 运营者名下景区的发码统计
func (s *issueService) Stats(operatorID string) (*repository.CodeStats, error) {
	ids, err := s.attractions.OwnedIDs(operatorID)
	if err != nil {
		return nil, err
	}
	return s.repo.Stats(ids)
}

// PurgeInvalid 清理已消费或过期的码，范围限定在运营者名下景区
func (s *issueService) PurgeInvalid(operatorID string) (int64, error) {
	ids, err := s.attractions.OwnedIDs(operatorID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.repo.PurgeInvalid(ids)
	if err == nil {
		metrics.Default.CodesPurged(deleted)
	}
	return deleted, err
}

// PurgeAll 清空运营者名下景区的全部码
func (s *issueService) PurgeAll(operatorID string) (int64, error) {
	ids, err := s.attractions.OwnedIDs(operatorID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.repo.PurgeAll(ids)
	if err == nil {
		metrics.Default.CodesPurged(deleted)
	}
	return deleted, err
}
