/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"naive.systems/bdeverify/cruleslib/diag"
)

var languageMap = map[string]language.Tag{"en": language.English, "zh": language.Chinese}

// Message keys are the English texts.
const (
	MsgStartAnalyzing   = "Start analyzing %s (%v/%v)"
	MsgAnalysisDone     = "Analysis of %s completed (%s, %v/%v) [%s]"
	MsgAnalysisFailed   = "Analysis of %s failed: %v"
	MsgUseCPUs          = "Use %d CPU(s)"
	MsgInterrupted      = "Ctrl C Pressed. Stop analysis"
	MsgTranslationUnits = "%d translation unit(s) to analyze"
	MsgDiagnostics      = "%d diagnostic(s) reported"
	MsgBySeverity       = "%d error(s), %d warning(s), %d remark(s), %d note(s)"
	MsgResultsWritten   = "Results written to %s"
	MsgRewritten        = "%d rewritten file(s) written to %s"
	MsgNothingToAnalyze = "nothing to analyze"
)

var zh = map[string]string{
	MsgStartAnalyzing:   "开始分析 %s (%v/%v)",
	MsgAnalysisDone:     "%s 分析完成 (%s, %v/%v) [%s]",
	MsgAnalysisFailed:   "%s 分析失败: %v",
	MsgUseCPUs:          "使用 %d 个 CPU",
	MsgInterrupted:      "已按下 Ctrl C，停止分析",
	MsgTranslationUnits: "共 %d 个翻译单元待分析",
	MsgDiagnostics:      "共报告 %d 条诊断",
	MsgBySeverity:       "%d 个错误, %d 个警告, %d 个提示, %d 个备注",
	MsgResultsWritten:   "结果已写入 %s",
	MsgRewritten:        "%d 个改写后的文件已写入 %s",
	MsgNothingToAnalyze: "没有需要分析的内容",
	"note":              "备注",
	"remark":            "提示",
	"warning":           "警告",
	"error":             "错误",
}

func init() {
	for key, msg := range zh {
		if err := message.SetString(language.Chinese, key, msg); err != nil {
			panic(err)
		}
	}
	for key := range zh {
		if err := message.SetString(language.English, key, key); err != nil {
			panic(err)
		}
	}
}

// GetPrinter returns a printer for lang, falling back to English.
func GetPrinter(lang string) *message.Printer {
	var langTag language.Tag
	if _, exist := languageMap[lang]; exist {
		langTag = languageMap[lang]
	} else {
		langTag = languageMap["en"]
	}
	return message.NewPrinter(langTag)
}

func LocalizeSeverity(p *message.Printer, s diag.Severity) string {
	return p.Sprintf(s.String())
}
