package ast

// Visitor has one method per node kind.
type Visitor interface {
	VisitUnit(node *Unit)

	VisitIdentifier(node *Identifier)
	VisitNumberLiteral(node *NumberLiteral)
	VisitStringLiteral(node *StringLiteral)
	VisitBooleanLiteral(node *BooleanLiteral)
	VisitUnitLiteral(node *UnitLiteral)
	VisitSequence(node *Sequence)
	VisitBinding(node *Binding)
	VisitStructBinding(node *StructBinding)
	VisitLambda(node *Lambda)
	VisitStructLiteral(node *StructLiteral)
	VisitIfExpression(node *IfExpression)
	VisitLoopExpression(node *LoopExpression)
	VisitTryExpression(node *TryExpression)
	VisitApplyExpression(node *ApplyExpression)
	VisitBinaryExpression(node *BinaryExpression)
	VisitFieldAccess(node *FieldAccess)
	VisitIndexExpression(node *IndexExpression)
	VisitListLiteral(node *ListLiteral)
	VisitRangeExpression(node *RangeExpression)
	VisitMapLiteral(node *MapLiteral)
	VisitCaseExpression(node *CaseExpression)
	VisitVariantConstructor(node *VariantConstructor)
	VisitLoadModule(node *LoadModule)
	VisitScriptExpression(node *ScriptExpression)
	VisitConcatExpression(node *ConcatExpression)
	VisitMethodCall(node *MethodCall)
	VisitOperatorSection(node *OperatorSection)
	VisitFieldSection(node *FieldSection)
	VisitWithExpression(node *WithExpression)
	VisitAssignExpression(node *AssignExpression)
	VisitNewExpression(node *NewExpression)
	VisitCastExpression(node *CastExpression)
	VisitTypeDefinition(node *TypeDefinition)
	VisitClassDefinition(node *ClassDefinition)
	VisitImportStatement(node *ImportStatement)
	VisitClassOf(node *ClassOf)
	VisitInstanceOf(node *InstanceOf)

	VisitWildcardPattern(node *WildcardPattern)
	VisitUnitPattern(node *UnitPattern)
	VisitIdentifierPattern(node *IdentifierPattern)
	VisitLiteralPattern(node *LiteralPattern)
	VisitListPattern(node *ListPattern)
	VisitConsPattern(node *ConsPattern)
	VisitFieldPattern(node *FieldPattern)
	VisitStructPattern(node *StructPattern)
	VisitVariantPattern(node *VariantPattern)
}
