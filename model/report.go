// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// フォームおよびCSVヘッダーで使用するフィールド名
const (
	FieldReportDate          = "report_date"
	FieldSiteName            = "site_name"
	FieldTeam                = "team"
	FieldPersonInCharge      = "person_in_charge"
	FieldVolume              = "volume"
	FieldArrangedQuantity    = "arranged_quantity"
	FieldLengthBreakdown     = "length_breakdown"
	FieldGoodProducts        = "good_products"
	FieldSiteInventory       = "site_inventory"
	FieldDeliveryDueDate     = "delivery_due_date"
	FieldDeliveryDestination = "delivery_destination"
	FieldDefects             = "defects"
	FieldCondition           = "condition"
	FieldNotes               = "notes"
)

// ReportFields はCSVに書き出す列の並びです。識別子は含みません。
var ReportFields = []string{
	FieldReportDate,
	FieldSiteName,
	FieldTeam,
	FieldPersonInCharge,
	FieldVolume,
	FieldArrangedQuantity,
	FieldLengthBreakdown,
	FieldGoodProducts,
	FieldSiteInventory,
	FieldDeliveryDueDate,
	FieldDeliveryDestination,
	FieldDefects,
	FieldCondition,
	FieldNotes,
}

// Report は1件の作業日報を表すモデルです。
type Report struct {
	ID                  int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ReportDate          string `json:"report_date" gorm:"size:80;not null" validate:"required"`
	SiteName            string `json:"site_name" gorm:"size:255;not null" validate:"required"`
	Team                string `json:"team" gorm:"size:80;not null" validate:"required"`
	PersonInCharge      string `json:"person_in_charge" gorm:"size:80;not null" validate:"required"`
	Volume              int    `json:"volume" gorm:"not null"`
	ArrangedQuantity    string `json:"arranged_quantity" gorm:"size:80"`
	LengthBreakdown     string `json:"length_breakdown" gorm:"size:255"`
	GoodProducts        string `json:"good_products" gorm:"size:255"`
	SiteInventory       string `json:"site_inventory" gorm:"size:255"`
	DeliveryDueDate     string `json:"delivery_due_date" gorm:"size:255"`
	DeliveryDestination string `json:"delivery_destination" gorm:"size:255"`
	Defects             int    `json:"defects" gorm:"not null"`
	Condition           string `json:"condition" gorm:"size:80;not null" validate:"required"`
	Notes               string `json:"notes" gorm:"type:text"`
}

// TableName はgormが使用するテーブル名を返します。
func (Report) TableName() string {
	return "reports"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// requiredFields はタグ名とフィールド名の対応です。バリデーションエラーの表示に使用します。
var requiredFields = map[string]string{
	"ReportDate":     FieldReportDate,
	"SiteName":       FieldSiteName,
	"Team":           FieldTeam,
	"PersonInCharge": FieldPersonInCharge,
	"Condition":      FieldCondition,
}

// NewReportFromFields はフォーム等のフィールド値からReportを生成します。
// volumeとdefectsは整数に変換し、変換できない場合はValidationErrorを返します。
func NewReportFromFields(fields map[string]string) (*Report, error) {
	volume, err := ParseCount(FieldVolume, fields[FieldVolume])
	if err != nil {
		return nil, err
	}
	defects, err := ParseCount(FieldDefects, fields[FieldDefects])
	if err != nil {
		return nil, err
	}

	report := &Report{
		ReportDate:          fields[FieldReportDate],
		SiteName:            fields[FieldSiteName],
		Team:                fields[FieldTeam],
		PersonInCharge:      fields[FieldPersonInCharge],
		Volume:              volume,
		ArrangedQuantity:    fields[FieldArrangedQuantity],
		LengthBreakdown:     fields[FieldLengthBreakdown],
		GoodProducts:        fields[FieldGoodProducts],
		SiteInventory:       fields[FieldSiteInventory],
		DeliveryDueDate:     fields[FieldDeliveryDueDate],
		DeliveryDestination: fields[FieldDeliveryDestination],
		Defects:             defects,
		Condition:           fields[FieldCondition],
		Notes:               fields[FieldNotes],
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

// ReportFromRow はCSVの1行（ヘッダー名をキーとするマップ）からReportを復元します。
func ReportFromRow(id int64, row map[string]string) (*Report, error) {
	report, err := NewReportFromFields(row)
	if err != nil {
		return nil, err
	}
	report.ID = id
	return report, nil
}

// Validate は必須項目が空でないことを検証します。
// 選択肢（チームや天候など）の妥当性はここでは検証しません。
func (r *Report) Validate() error {
	// 空白のみの値も未入力として扱う
	trimmed := *r
	trimmed.ReportDate = strings.TrimSpace(r.ReportDate)
	trimmed.SiteName = strings.TrimSpace(r.SiteName)
	trimmed.Team = strings.TrimSpace(r.Team)
	trimmed.PersonInCharge = strings.TrimSpace(r.PersonInCharge)
	trimmed.Condition = strings.TrimSpace(r.Condition)

	err := validate.Struct(&trimmed)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := requiredFields[verrs[0].StructField()]
		return NewValidationError(field, "is required")
	}
	return NewValidationError("", err.Error())
}

// Fields はReportをフィールド名をキーとするマップに変換します。
func (r *Report) Fields() map[string]string {
	return map[string]string{
		FieldReportDate:          r.ReportDate,
		FieldSiteName:            r.SiteName,
		FieldTeam:                r.Team,
		FieldPersonInCharge:      r.PersonInCharge,
		FieldVolume:              formatCount(r.Volume),
		FieldArrangedQuantity:    r.ArrangedQuantity,
		FieldLengthBreakdown:     r.LengthBreakdown,
		FieldGoodProducts:        r.GoodProducts,
		FieldSiteInventory:       r.SiteInventory,
		FieldDeliveryDueDate:     r.DeliveryDueDate,
		FieldDeliveryDestination: r.DeliveryDestination,
		FieldDefects:             formatCount(r.Defects),
		FieldCondition:           r.Condition,
		FieldNotes:               r.Notes,
	}
}

// Row はReportFieldsの順に並べたCSVの1行を返します。
func (r *Report) Row() []string {
	fields := r.Fields()
	row := make([]string, len(ReportFields))
	for i, name := range ReportFields {
		row[i] = fields[name]
	}
	return row
}
