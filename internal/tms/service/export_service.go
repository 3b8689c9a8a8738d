package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportService Excel导入导出服务。
// 导入走两阶段：先校验分组（valid/duplicate/exists/invalid），确认后仅写入valid行。
type ExportService struct {
	partyRepo  *repository.PartyRepository
	itemRepo   *repository.ItemRepository
	lookupRepo *repository.LookupRepository
	auditRepo  *repository.AuditLogRepository
}

func NewExportService(
	partyRepo *repository.PartyRepository,
	itemRepo *repository.ItemRepository,
	lookupRepo *repository.LookupRepository,
	auditRepo *repository.AuditLogRepository,
) *ExportService {
	return &ExportService{
		partyRepo:  partyRepo,
		itemRepo:   itemRepo,
		lookupRepo: lookupRepo,
		auditRepo:  auditRepo,
	}
}

var partyHeaders = []string{"Code", "Name", "Contact Person", "Phone", "Email", "Address", "GST No", "Active"}

var itemHeaders = []string{"Main Part Name", "Current Name", "Drawing No", "Revision No",
	"Item Type", "Material", "Owner Type", "Item Status", "Current Process", "Active"}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// ExportParties 导出往来单位清单
func (s *ExportService) ExportParties(ctx context.Context, userID string) (*excelize.File, error) {
	parties, err := s.partyRepo.FindAll(ctx, "", true)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Parties"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeaderRow(f, sheet, partyHeaders); err != nil {
		return nil, err
	}

	for i, p := range parties {
		values := []interface{}{p.Code, p.Name, p.ContactPerson, p.Phone, p.Email, p.Address, p.GSTNo, strconv.FormatBool(p.IsActive)}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	s.auditRepo.LogAction(ctx, "party", "", "", "export", "", "",
		fmt.Sprintf("导出往来单位，共%d条", len(parties)), userID, "")
	return f, nil
}

// ExportItems 导出工装台账
func (s *ExportService) ExportItems(ctx context.Context, userID string) (*excelize.File, error) {
	items, _, err := s.itemRepo.FindAll(ctx, 1, 100000, map[string]string{"include_inactive": "true"})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Items"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeaderRow(f, sheet, itemHeaders); err != nil {
		return nil, err
	}

	for i, item := range items {
		var typeName, materialName, ownerName, statusName string
		if item.ItemType != nil {
			typeName = item.ItemType.Name
		}
		if item.Material != nil {
			materialName = item.Material.Name
		}
		if item.OwnerType != nil {
			ownerName = item.OwnerType.Name
		}
		if item.ItemStatus != nil {
			statusName = item.ItemStatus.Name
		}
		values := []interface{}{item.MainPartName, item.CurrentName, item.DrawingNo, item.RevisionNo,
			typeName, materialName, ownerName, statusName, item.CurrentProcess, strconv.FormatBool(item.IsActive)}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	s.auditRepo.LogAction(ctx, "item", "", "", "export", "", "",
		fmt.Sprintf("导出工装台账，共%d条", len(items)), userID, "")
	return f, nil
}

// ImportRow 导入校验行
type ImportRow struct {
	RowNumber int               `json:"row_number"`
	Fields    map[string]string `json:"fields"`
	Reason    string            `json:"reason,omitempty"`
}

// ImportValidation 导入校验结果分组
type ImportValidation struct {
	Valid         []ImportRow `json:"valid"`
	Duplicates    []ImportRow `json:"duplicates"`     // 文件内重复
	AlreadyExists []ImportRow `json:"already_exists"` // 库内已存在
	Invalid       []ImportRow `json:"invalid"`        // 必填缺失/引用无效
}

func readRows(r io.Reader, expectedHeaders []string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法读取Excel文件", ErrValidation)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: 文件为空", ErrValidation)
	}
	if len(rows[0]) < len(expectedHeaders) {
		return nil, fmt.Errorf("%w: 表头不完整，应为 %v", ErrValidation, expectedHeaders)
	}
	return rows, nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// ValidatePartyImport 校验往来单位导入文件
func (s *ExportService) ValidatePartyImport(ctx context.Context, r io.Reader) (*ImportValidation, error) {
	rows, err := readRows(r, partyHeaders)
	if err != nil {
		return nil, err
	}

	result := &ImportValidation{
		Valid:         []ImportRow{},
		Duplicates:    []ImportRow{},
		AlreadyExists: []ImportRow{},
		Invalid:       []ImportRow{},
	}
	seenCodes := make(map[string]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2
		code := cellAt(row, 0)
		name := cellAt(row, 1)
		ir := ImportRow{
			RowNumber: rowNum,
			Fields: map[string]string{
				"code":           code,
				"name":           name,
				"contact_person": cellAt(row, 2),
				"phone":          cellAt(row, 3),
				"email":          cellAt(row, 4),
				"address":        cellAt(row, 5),
				"gst_no":         cellAt(row, 6),
			},
		}

		if code == "" || name == "" {
			ir.Reason = "编码和名称必填"
			result.Invalid = append(result.Invalid, ir)
			continue
		}
		if seenCodes[code] {
			ir.Reason = "文件内编码重复"
			result.Duplicates = append(result.Duplicates, ir)
			continue
		}
		seenCodes[code] = true

		existing, err := s.partyRepo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ir.Reason = "编码已存在"
			result.AlreadyExists = append(result.AlreadyExists, ir)
			continue
		}
		result.Valid = append(result.Valid, ir)
	}
	return result, nil
}

// ImportParties 导入往来单位，仅写入校验通过的行
func (s *ExportService) ImportParties(ctx context.Context, userID string, r io.Reader) (*ImportValidation, error) {
	validation, err := s.ValidatePartyImport(ctx, r)
	if err != nil {
		return nil, err
	}

	for _, row := range validation.Valid {
		p := &entity.Party{
			ID:            uuid.New().String()[:32],
			Code:          row.Fields["code"],
			Name:          row.Fields["name"],
			ContactPerson: row.Fields["contact_person"],
			Phone:         row.Fields["phone"],
			Email:         row.Fields["email"],
			Address:       row.Fields["address"],
			GSTNo:         row.Fields["gst_no"],
			IsActive:      true,
		}
		if err := s.partyRepo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("导入第%d行失败: %w", row.RowNumber, err)
		}
	}

	s.auditRepo.LogAction(ctx, "party", "", "", "import", "", "",
		fmt.Sprintf("导入往来单位，成功%d条，跳过%d条", len(validation.Valid),
			len(validation.Duplicates)+len(validation.AlreadyExists)+len(validation.Invalid)), userID, "")
	return validation, nil
}

// ValidateItemImport 校验工装导入文件。
// 字典字段（类型/材质/产权/状态）按名称解析，未知名称归入invalid。
func (s *ExportService) ValidateItemImport(ctx context.Context, r io.Reader) (*ImportValidation, error) {
	rows, err := readRows(r, itemHeaders[:8])
	if err != nil {
		return nil, err
	}

	types, err := s.lookupRepo.FindItemTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	materials, err := s.lookupRepo.FindMaterials(ctx, false)
	if err != nil {
		return nil, err
	}
	owners, err := s.lookupRepo.FindOwnerTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	statuses, err := s.lookupRepo.FindItemStatuses(ctx, false)
	if err != nil {
		return nil, err
	}

	typeByName := make(map[string]string, len(types))
	for _, t := range types {
		typeByName[t.Name] = t.ID
	}
	materialByName := make(map[string]string, len(materials))
	for _, m := range materials {
		materialByName[m.Name] = m.ID
	}
	ownerByName := make(map[string]string, len(owners))
	for _, o := range owners {
		ownerByName[o.Name] = o.ID
	}
	statusByName := make(map[string]string, len(statuses))
	for _, st := range statuses {
		statusByName[st.Name] = st.ID
	}

	result := &ImportValidation{
		Valid:         []ImportRow{},
		Duplicates:    []ImportRow{},
		AlreadyExists: []ImportRow{},
		Invalid:       []ImportRow{},
	}
	seenNames := make(map[string]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2
		mainPartName := cellAt(row, 0)
		ir := ImportRow{
			RowNumber: rowNum,
			Fields: map[string]string{
				"main_part_name": mainPartName,
				"current_name":   cellAt(row, 1),
				"drawing_no":     cellAt(row, 2),
				"revision_no":    cellAt(row, 3),
				"item_type":      cellAt(row, 4),
				"material":       cellAt(row, 5),
				"owner_type":     cellAt(row, 6),
				"item_status":    cellAt(row, 7),
			},
		}

		if mainPartName == "" {
			ir.Reason = "主件号必填"
			result.Invalid = append(result.Invalid, ir)
			continue
		}

		typeID, okType := typeByName[ir.Fields["item_type"]]
		materialID, okMaterial := materialByName[ir.Fields["material"]]
		ownerID, okOwner := ownerByName[ir.Fields["owner_type"]]
		statusID, okStatus := statusByName[ir.Fields["item_status"]]
		switch {
		case !okType:
			ir.Reason = "工装类型无效: " + ir.Fields["item_type"]
		case !okMaterial:
			ir.Reason = "材质无效: " + ir.Fields["material"]
		case !okOwner:
			ir.Reason = "产权归属无效: " + ir.Fields["owner_type"]
		case !okStatus:
			ir.Reason = "工装状态无效: " + ir.Fields["item_status"]
		}
		if ir.Reason != "" {
			result.Invalid = append(result.Invalid, ir)
			continue
		}
		ir.Fields["item_type_id"] = typeID
		ir.Fields["material_id"] = materialID
		ir.Fields["owner_type_id"] = ownerID
		ir.Fields["item_status_id"] = statusID

		if seenNames[mainPartName] {
			ir.Reason = "文件内主件号重复"
			result.Duplicates = append(result.Duplicates, ir)
			continue
		}
		seenNames[mainPartName] = true

		existing, err := s.itemRepo.FindByMainPartName(ctx, mainPartName)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ir.Reason = "主件号已存在"
			result.AlreadyExists = append(result.AlreadyExists, ir)
			continue
		}
		result.Valid = append(result.Valid, ir)
	}
	return result, nil
}

// ImportItems 导入工装，仅写入校验通过的行，统一以 not_in_stock 起始
func (s *ExportService) ImportItems(ctx context.Context, userID string, r io.Reader) (*ImportValidation, error) {
	validation, err := s.ValidateItemImport(ctx, r)
	if err != nil {
		return nil, err
	}

	for _, row := range validation.Valid {
		currentName := row.Fields["current_name"]
		if currentName == "" {
			currentName = row.Fields["main_part_name"]
		}
		item := &entity.Item{
			ID:             uuid.New().String()[:32],
			MainPartName:   row.Fields["main_part_name"],
			CurrentName:    currentName,
			DrawingNo:      row.Fields["drawing_no"],
			RevisionNo:     row.Fields["revision_no"],
			ItemTypeID:     row.Fields["item_type_id"],
			MaterialID:     row.Fields["material_id"],
			OwnerTypeID:    row.Fields["owner_type_id"],
			ItemStatusID:   row.Fields["item_status_id"],
			CurrentProcess: entity.ProcessNotInStock,
			IsActive:       true,
			CreatedBy:      userID,
		}
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("导入第%d行失败: %w", row.RowNumber, err)
		}
	}

	s.auditRepo.LogAction(ctx, "item", "", "", "import", "", "",
		fmt.Sprintf("导入工装，成功%d条，跳过%d条", len(validation.Valid),
			len(validation.Duplicates)+len(validation.AlreadyExists)+len(validation.Invalid)), userID, "")
	return validation, nil
}
